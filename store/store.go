package store

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("slot unavailable")
)

// Store is the persistence contract shared by the voice path and the REST
// path. Every paired appointment/slot mutation is a single logical unit:
// implementations must not let one half land without the other.
type Store interface {
	UserByPhone(ctx context.Context, phone string) (*User, error)
	CreateUser(ctx context.Context, phone, name string) (*User, error)

	// AvailableSlots returns slots with is_booked=false ordered by
	// (date, time) ascending, optionally filtered to one date.
	AvailableSlots(ctx context.Context, date string) ([]Slot, error)

	// ActiveAppointmentAt reports the booked appointment occupying
	// (date, time) for any caller, or ErrAppointmentNotFound.
	ActiveAppointmentAt(ctx context.Context, date, tm string) (*Appointment, error)

	// BookAppointment flips the slot to booked and inserts the appointment
	// in one transaction. Returns ErrSlotUnavailable when the slot does not
	// exist or is already booked.
	BookAppointment(ctx context.Context, phone, date, tm, reason string) (*Appointment, error)

	// AppointmentsByPhone returns the caller's appointments ordered by
	// (date, time) ascending, optionally filtered by status.
	AppointmentsByPhone(ctx context.Context, phone, status string) ([]Appointment, error)

	// CancelAppointment transitions the matching booked appointment to
	// cancelled and releases its slot. Returns ErrAppointmentNotFound when
	// no booked appointment matches exactly.
	CancelAppointment(ctx context.Context, phone, date, tm string) (*Appointment, error)

	// ModifyAppointment moves the matching booked appointment to the new
	// slot in place, booking the new slot and releasing the old one.
	ModifyAppointment(ctx context.Context, phone, oldDate, oldTime, newDate, newTime string) (*Appointment, error)

	SaveCallSummary(ctx context.Context, phone, summary string) (*CallSummary, error)

	// SummariesByPhone returns call summaries newest first.
	SummariesByPhone(ctx context.Context, phone string) ([]CallSummary, error)
}
