package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wrenvoice/voice-scheduler/agent/session"
	"github.com/wrenvoice/voice-scheduler/agent/summary"
	"github.com/wrenvoice/voice-scheduler/scheduler"
)

// SummaryTopic is the side-channel topic the display client subscribes to.
const SummaryTopic = "call_summary"

const defaultGraceDelay = 5 * time.Second

const notIdentifiedDirective = "The caller has not been identified yet. " +
	"Please ask for their phone number and use identify_user first."

const farewellUtterance = "I've prepared a summary of our conversation which you can see on your screen. " +
	"Thank you for calling. Have a great day! Goodbye."

// Room is the realtime transport collaborator for one call: spoken output,
// the data side-channel, and teardown.
type Room interface {
	Say(ctx context.Context, text string, allowInterruptions bool) error
	PublishData(ctx context.Context, topic string, payload []byte) error
	Disconnect(ctx context.Context) error
}

// Summarizer produces the end-of-call summary; it must never fail (the
// generator's deterministic fallback guarantees that).
type Summarizer interface {
	Generate(ctx context.Context, actions []session.ActionRecord, phone, name string) summary.Summary
}

// Dispatcher executes the call tools against the scheduling service for one
// session. Every failure becomes a descriptive text result for the dialogue
// model — tools never raise to the controller.
type Dispatcher struct {
	sched      *scheduler.Service
	sess       *session.Session
	room       Room
	summarizer Summarizer
	graceDelay time.Duration
}

type DispatcherConfig struct {
	// GraceDelay is how long end_conversation waits after the farewell so
	// speech playback and the remote summary display can finish.
	GraceDelay time.Duration
}

func NewDispatcher(
	sched *scheduler.Service,
	sess *session.Session,
	room Room,
	summarizer Summarizer,
	cfg DispatcherConfig,
) (*Dispatcher, error) {
	if sched == nil {
		return nil, errors.New("scheduler service is required")
	}
	if sess == nil {
		return nil, errors.New("call session is required")
	}
	if room == nil {
		return nil, errors.New("room is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}

	graceDelay := cfg.GraceDelay
	if graceDelay < 0 {
		graceDelay = 0
	} else if graceDelay == 0 {
		graceDelay = defaultGraceDelay
	}

	return &Dispatcher{
		sched:      sched,
		sess:       sess,
		room:       room,
		summarizer: summarizer,
		graceDelay: graceDelay,
	}, nil
}

// Execute runs one tool call and returns the text result for the model.
// The error return is always nil for known tools; unknown tools get an
// unavailable notice, matching the recoverable-text contract.
func (d *Dispatcher) Execute(ctx context.Context, tool string, args map[string]any) (string, error) {
	log.Debug().Str("tool", tool).Msg("dispatching tool call")

	switch tool {
	case ToolIdentifyUser:
		return d.identifyUser(ctx, stringArg(args, "phone_number")), nil
	case ToolFetchSlots:
		return d.fetchSlots(ctx, stringArg(args, "date")), nil
	case ToolBookAppointment:
		return d.bookAppointment(ctx, stringArg(args, "date"), stringArg(args, "time"), stringArg(args, "reason")), nil
	case ToolRetrieveAppointments:
		return d.retrieveAppointments(ctx, stringArg(args, "status")), nil
	case ToolCancelAppointment:
		return d.cancelAppointment(ctx, stringArg(args, "date"), stringArg(args, "time")), nil
	case ToolModifyAppointment:
		return d.modifyAppointment(ctx,
			stringArg(args, "old_date"), stringArg(args, "old_time"),
			stringArg(args, "new_date"), stringArg(args, "new_time")), nil
	case ToolEndConversation:
		return d.endConversation(ctx), nil
	default:
		return fmt.Sprintf("Tool %s is not available.", tool), nil
	}
}

func (d *Dispatcher) identifyUser(ctx context.Context, phone string) string {
	user, isNew, err := d.sched.Identify(ctx, phone, "")
	if errors.Is(err, scheduler.ErrInvalidInput) {
		return fmt.Sprintf("The phone number '%s' does not appear to have 10 digits. "+
			"Please ask the caller for a valid phone number.", phone)
	}
	if err != nil {
		log.Error().Err(err).Msg("identify failed")
		return "Something went wrong while looking up the caller. Apologize and ask them to repeat their phone number."
	}

	d.sess.Identify(user, user.PhoneNumber)

	if isNew {
		d.sess.Track(fmt.Sprintf("Created new user account for %s", user.PhoneNumber))
		return fmt.Sprintf("No existing user found for %s. A new account has been created. "+
			"Ask the caller how you can help them.", user.PhoneNumber)
	}

	if user.Name != "" {
		d.sess.Track(fmt.Sprintf("Identified existing user: %s", user.Name))
		return fmt.Sprintf("User identified successfully. Name: %s, Phone: %s. "+
			"Greet them by name and ask how you can help.", user.Name, user.PhoneNumber)
	}
	d.sess.Track(fmt.Sprintf("Identified existing user: %s", user.PhoneNumber))
	return fmt.Sprintf("User identified successfully with phone number %s. "+
		"Ask them how you can help.", user.PhoneNumber)
}

func (d *Dispatcher) fetchSlots(ctx context.Context, date string) string {
	slots, err := d.sched.AvailableSlots(ctx, date)
	if errors.Is(err, scheduler.ErrInvalidInput) {
		return fmt.Sprintf("The date '%s' is not valid. Ask the caller for a date and use YYYY-MM-DD format.", date)
	}
	if err != nil {
		log.Error().Err(err).Msg("fetch slots failed")
		return "Something went wrong while fetching slots. Apologize and ask the caller to try again."
	}

	if len(slots) == 0 {
		if date != "" {
			return fmt.Sprintf("No available slots on %s. "+
				"Ask the caller if they would like to pick a different date.", date)
		}
		return "There are currently no available appointment slots."
	}

	grouped := scheduler.GroupSlots(slots)
	d.sess.Track(fmt.Sprintf("Fetched %d available slot(s) for %s", len(slots), orAllDates(date)))

	if date != "" {
		payload, _ := json.Marshal(map[string]any{
			"date":            date,
			"available_times": grouped[date],
		})
		return string(payload)
	}
	payload, _ := json.Marshal(grouped)
	return string(payload)
}

func (d *Dispatcher) bookAppointment(ctx context.Context, date, tm, reason string) string {
	if !d.sess.Identified() {
		return notIdentifiedDirective
	}

	_, err := d.sched.Book(ctx, d.sess.PhoneNumber(), date, tm, reason)
	switch {
	case errors.Is(err, scheduler.ErrInvalidInput):
		return fmt.Sprintf("The slot '%s at %s' is not a valid date and time. "+
			"Dates are YYYY-MM-DD and times are HH:MM.", date, tm)
	case errors.Is(err, scheduler.ErrSlotUnavailable):
		return fmt.Sprintf("The slot %s at %s is not available. "+
			"Use fetch_slots to show the caller valid options.", date, tm)
	case errors.Is(err, scheduler.ErrSlotAlreadyBooked):
		return fmt.Sprintf("The slot on %s at %s is already booked. "+
			"Please ask the caller to choose a different time.", date, tm)
	case err != nil:
		log.Error().Err(err).Msg("booking failed")
		return "Something went wrong while booking. Apologize and ask the caller to try again."
	}

	d.sess.Track(fmt.Sprintf("Booked appointment on %s at %s", date, tm))

	d.say(ctx, fmt.Sprintf("Your appointment on %s at %s has been booked successfully. "+
		"Is there anything I can help you with?", FriendlyDate(date), FriendlyTime(tm)))

	// Confirmation already spoken; nothing for the model to add.
	return ""
}

func (d *Dispatcher) retrieveAppointments(ctx context.Context, status string) string {
	if !d.sess.Identified() {
		return notIdentifiedDirective
	}

	appts, err := d.sched.Appointments(ctx, d.sess.PhoneNumber(), status)
	if errors.Is(err, scheduler.ErrInvalidInput) {
		return fmt.Sprintf("The status filter '%s' is not valid. Use 'booked', 'cancelled', or omit it.", status)
	}
	if err != nil {
		log.Error().Err(err).Msg("retrieve appointments failed")
		return "Something went wrong while looking up appointments. Apologize and ask the caller to try again."
	}

	if len(appts) == 0 {
		filterText := ""
		if status != "" {
			filterText = fmt.Sprintf(" with status '%s'", status)
		}
		return fmt.Sprintf("No appointments found%s for this caller. "+
			"Let them know and ask if they'd like to book one.", filterText)
	}

	d.sess.Track(fmt.Sprintf("Retrieved %d appointment(s)", len(appts)))

	entries := make([]string, 0, len(appts))
	for _, appt := range appts {
		entry := fmt.Sprintf("Date: %s, Time: %s, Status: %s", appt.Date, appt.Time, appt.Status)
		if appt.Reason != "" {
			entry += ", Reason: " + appt.Reason
		}
		entries = append(entries, entry)
	}
	return fmt.Sprintf("Found %d appointment(s): %s. "+
		"Present these details to the caller in a clear, conversational way.",
		len(appts), strings.Join(entries, "; "))
}

func (d *Dispatcher) cancelAppointment(ctx context.Context, date, tm string) string {
	if !d.sess.Identified() {
		return notIdentifiedDirective
	}

	_, err := d.sched.Cancel(ctx, d.sess.PhoneNumber(), date, tm)
	switch {
	case errors.Is(err, scheduler.ErrInvalidInput):
		return fmt.Sprintf("The slot '%s at %s' is not a valid date and time. "+
			"Dates are YYYY-MM-DD and times are HH:MM.", date, tm)
	case errors.Is(err, scheduler.ErrNotFound):
		return fmt.Sprintf("No active appointment found on %s at %s for this caller. "+
			"Use retrieve_appointments to check their existing appointments.", date, tm)
	case err != nil:
		log.Error().Err(err).Msg("cancellation failed")
		return "Something went wrong while cancelling. Apologize and ask the caller to try again."
	}

	d.sess.Track(fmt.Sprintf("Cancelled appointment on %s at %s", date, tm))

	d.say(ctx, fmt.Sprintf("Your appointment on %s at %s has been cancelled.",
		FriendlyDate(date), FriendlyTime(tm)))

	return fmt.Sprintf("The appointment on %s at %s has been cancelled successfully. "+
		"The confirmation has already been spoken to the caller. "+
		"Ask if there's anything else you can help with.", date, tm)
}

func (d *Dispatcher) modifyAppointment(ctx context.Context, oldDate, oldTime, newDate, newTime string) string {
	if !d.sess.Identified() {
		return notIdentifiedDirective
	}

	_, err := d.sched.Modify(ctx, d.sess.PhoneNumber(), oldDate, oldTime, newDate, newTime)
	switch {
	case errors.Is(err, scheduler.ErrInvalidInput):
		return "One of the provided slots is not a valid date and time. " +
			"Dates are YYYY-MM-DD and times are HH:MM."
	case errors.Is(err, scheduler.ErrSlotUnavailable):
		return fmt.Sprintf("The new slot %s at %s is not available. "+
			"Use fetch_slots to show the caller valid options.", newDate, newTime)
	case errors.Is(err, scheduler.ErrNotFound):
		return fmt.Sprintf("No active appointment found on %s at %s for this caller. "+
			"Use retrieve_appointments to check their existing appointments.", oldDate, oldTime)
	case err != nil:
		log.Error().Err(err).Msg("modification failed")
		return "Something went wrong while modifying the appointment. Apologize and ask the caller to try again."
	}

	d.sess.Track(fmt.Sprintf("Modified appointment from %s %s to %s %s", oldDate, oldTime, newDate, newTime))

	d.say(ctx, fmt.Sprintf("Your appointment has been moved from %s at %s to %s at %s.",
		FriendlyDate(oldDate), FriendlyTime(oldTime), FriendlyDate(newDate), FriendlyTime(newTime)))

	return fmt.Sprintf("Appointment has been moved from %s at %s to %s at %s. "+
		"The confirmation has already been spoken to the caller. "+
		"Ask if there's anything else you can help with.", oldDate, oldTime, newDate, newTime)
}

// endConversation is the terminal action. Summary persistence and publish
// failures are logged and swallowed: the farewell and the disconnect must
// happen regardless, so the call always terminates cleanly.
func (d *Dispatcher) endConversation(ctx context.Context) string {
	s := d.summarizer.Generate(ctx, d.sess.ActionLog(), d.sess.PhoneNumber(), d.sess.UserName())

	if _, err := d.sched.SaveSummary(ctx, d.sess.PhoneNumber(), summary.RenderFull(s)); err != nil {
		log.Error().Err(err).Msg("failed to save call summary")
	} else {
		log.Info().Msg("call summary saved")
	}

	payload, err := json.Marshal(summaryPayload{Type: SummaryTopic, Summary: s})
	if err == nil {
		err = d.room.PublishData(ctx, SummaryTopic, payload)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to publish call summary to room")
	}

	d.say(ctx, farewellUtterance)

	select {
	case <-time.After(d.graceDelay):
	case <-ctx.Done():
	}

	if err := d.room.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("could not disconnect room, it may have already closed")
	}
	return ""
}

type summaryPayload struct {
	Type string `json:"type"`
	summary.Summary
}

// say speaks a confirmation with interruptions disabled. Speech failures
// are logged only; the mutation already succeeded and the text result still
// reaches the model.
func (d *Dispatcher) say(ctx context.Context, text string) {
	if err := d.room.Say(ctx, text, false); err != nil {
		log.Error().Err(err).Msg("failed to speak confirmation")
	}
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func orAllDates(date string) string {
	if date == "" {
		return "all dates"
	}
	return date
}
