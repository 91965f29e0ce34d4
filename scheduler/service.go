// Package scheduler implements the scheduling operations shared by the
// voice tools and the REST surface. All operations run against an injected
// store handle; there is no package-level client state.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wrenvoice/voice-scheduler/store"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrSlotAlreadyBooked = errors.New("slot already booked")

	ErrNotFound        = store.ErrAppointmentNotFound
	ErrUserNotFound    = store.ErrUserNotFound
	ErrSlotUnavailable = store.ErrSlotUnavailable

	// ErrUpstreamFailure wraps store errors that are not part of the
	// scheduling taxonomy, so callers can map them to 5xx / retry prompts.
	ErrUpstreamFailure = errors.New("upstream failure")
)

type Service struct {
	store store.Store
}

func New(st store.Store) (*Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	return &Service{store: st}, nil
}

// Identify normalizes the phone number to digits and looks the user up,
// creating a record on first contact. The optional name is used only on the
// create path; an existing record is never renamed. Idempotent: repeat calls
// with the same number return the existing user with isNew=false.
func (s *Service) Identify(ctx context.Context, phone, name string) (*store.User, bool, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, false, err
	}

	user, err := s.store.UserByPhone(ctx, normalized)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, false, upstream(err)
	}

	user, err = s.store.CreateUser(ctx, normalized, strings.TrimSpace(name))
	if err != nil {
		return nil, false, upstream(err)
	}
	return user, true, nil
}

// User looks up an existing user without creating one.
func (s *Service) User(ctx context.Context, phone string) (*store.User, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UserByPhone(ctx, normalized)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, upstream(err)
	}
	return user, nil
}

// AvailableSlots lists open slots, optionally filtered to one date.
func (s *Service) AvailableSlots(ctx context.Context, date string) ([]store.Slot, error) {
	if date != "" {
		if err := ValidateDate(date); err != nil {
			return nil, err
		}
	}
	slots, err := s.store.AvailableSlots(ctx, date)
	if err != nil {
		return nil, upstream(err)
	}
	return slots, nil
}

// Book places an appointment on an open slot. The slot flag is the source of
// truth; the existence check is a defense-in-depth double-booking guard.
func (s *Service) Book(ctx context.Context, phone, date, tm, reason string) (*store.Appointment, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlot(date, tm); err != nil {
		return nil, err
	}

	if _, err := s.store.ActiveAppointmentAt(ctx, date, tm); err == nil {
		return nil, fmt.Errorf("%w: %s at %s", ErrSlotAlreadyBooked, date, tm)
	} else if !errors.Is(err, store.ErrAppointmentNotFound) {
		return nil, upstream(err)
	}

	appt, err := s.store.BookAppointment(ctx, normalized, date, tm, reason)
	if errors.Is(err, store.ErrSlotUnavailable) {
		return nil, err
	}
	if err != nil {
		return nil, upstream(err)
	}
	return appt, nil
}

// Appointments returns the caller's appointments, optionally filtered by
// status. An empty result is not an error.
func (s *Service) Appointments(ctx context.Context, phone, status string) ([]store.Appointment, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	appts, err := s.store.AppointmentsByPhone(ctx, normalized, status)
	if err != nil {
		return nil, upstream(err)
	}
	return appts, nil
}

// Cancel transitions the matching booked appointment to cancelled and frees
// its slot.
func (s *Service) Cancel(ctx context.Context, phone, date, tm string) (*store.Appointment, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlot(date, tm); err != nil {
		return nil, err
	}

	appt, err := s.store.CancelAppointment(ctx, normalized, date, tm)
	if errors.Is(err, store.ErrAppointmentNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, upstream(err)
	}
	return appt, nil
}

// Modify moves a booked appointment to a new open slot, preserving the
// appointment identity and its booked status.
func (s *Service) Modify(ctx context.Context, phone, oldDate, oldTime, newDate, newTime string) (*store.Appointment, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlot(oldDate, oldTime); err != nil {
		return nil, err
	}
	if err := ValidateSlot(newDate, newTime); err != nil {
		return nil, err
	}

	appt, err := s.store.ModifyAppointment(ctx, normalized, oldDate, oldTime, newDate, newTime)
	if errors.Is(err, store.ErrSlotUnavailable) || errors.Is(err, store.ErrAppointmentNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, upstream(err)
	}
	return appt, nil
}

// SaveSummary persists an end-of-call summary.
func (s *Service) SaveSummary(ctx context.Context, phone, summary string) (*store.CallSummary, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("%w: summary is empty", ErrInvalidInput)
	}
	// Summaries are saved even for unidentified callers; normalize when the
	// number is usable so lookups by phone find them.
	if normalized, err := NormalizePhone(phone); err == nil {
		phone = normalized
	}
	record, err := s.store.SaveCallSummary(ctx, phone, summary)
	if err != nil {
		return nil, upstream(err)
	}
	return record, nil
}

// Summaries returns the caller's summary history, newest first.
func (s *Service) Summaries(ctx context.Context, phone string) ([]store.CallSummary, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	summaries, err := s.store.SummariesByPhone(ctx, normalized)
	if err != nil {
		return nil, upstream(err)
	}
	return summaries, nil
}

// GroupSlots folds an ordered slot list into a date -> times mapping, the
// shape both the REST response and the fetch_slots tool serialize.
func GroupSlots(slots []store.Slot) map[string][]string {
	grouped := make(map[string][]string, len(slots))
	for _, s := range slots {
		grouped[s.Date] = append(grouped[s.Date], s.Time)
	}
	return grouped
}

func upstream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
}
