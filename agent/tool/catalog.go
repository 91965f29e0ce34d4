// Package tool exposes the callable operations the dialogue model may
// invoke during a call, and the dispatcher that executes them against the
// scheduling service.
package tool

import (
	"github.com/cloudwego/eino/schema"
)

const (
	ToolIdentifyUser         = "identify_user"
	ToolFetchSlots           = "fetch_slots"
	ToolBookAppointment      = "book_appointment"
	ToolRetrieveAppointments = "retrieve_appointments"
	ToolCancelAppointment    = "cancel_appointment"
	ToolModifyAppointment    = "modify_appointment"
	ToolEndConversation      = "end_conversation"
)

// Infos describes the call tools for model binding. Descriptions double as
// the controller-facing usage rules: mutating tools are invoked immediately
// once the caller decides, since they speak their own confirmations.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolIdentifyUser,
			Desc: "Identify the caller by phone number. Call this as soon as the caller provides their number.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"phone_number": {Type: schema.String, Desc: "The caller's phone number, e.g. 4155551234", Required: true},
			}),
		},
		{
			Name: ToolFetchSlots,
			Desc: "Fetch available appointment slots, optionally for one date. Use this before booking.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"date": {Type: schema.String, Desc: "Optional date filter in YYYY-MM-DD format"},
			}),
		},
		{
			Name: ToolBookAppointment,
			Desc: "Book an appointment for the identified caller. Call immediately when the caller picks a slot; do not ask for confirmation first, the tool speaks its own confirmation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"date":   {Type: schema.String, Desc: "Appointment date in YYYY-MM-DD format", Required: true},
				"time":   {Type: schema.String, Desc: "Appointment time in HH:MM 24-hour format", Required: true},
				"reason": {Type: schema.String, Desc: "Optional visit reason"},
			}),
		},
		{
			Name: ToolRetrieveAppointments,
			Desc: "Retrieve the identified caller's appointments, optionally filtered by status.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"status": {Type: schema.String, Desc: "Optional filter: booked or cancelled; omit for all"},
			}),
		},
		{
			Name: ToolCancelAppointment,
			Desc: "Cancel a booked appointment for the identified caller. Call immediately once the caller names the appointment; the tool speaks its own confirmation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"date": {Type: schema.String, Desc: "Appointment date in YYYY-MM-DD format", Required: true},
				"time": {Type: schema.String, Desc: "Appointment time in HH:MM 24-hour format", Required: true},
			}),
		},
		{
			Name: ToolModifyAppointment,
			Desc: "Move an existing appointment to a new date and time. Call immediately once the caller provides the old and new slot; the tool speaks its own confirmation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"old_date": {Type: schema.String, Desc: "Current appointment date in YYYY-MM-DD format", Required: true},
				"old_time": {Type: schema.String, Desc: "Current appointment time in HH:MM 24-hour format", Required: true},
				"new_date": {Type: schema.String, Desc: "New date in YYYY-MM-DD format", Required: true},
				"new_time": {Type: schema.String, Desc: "New time in HH:MM 24-hour format", Required: true},
			}),
		},
		{
			Name: ToolEndConversation,
			Desc: "End the call: generates and saves the conversation summary, says goodbye and disconnects. Only call when the caller clearly wants to stop.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"confirm": {Type: schema.Boolean, Desc: "Always pass true"},
			}),
		},
	}
}
