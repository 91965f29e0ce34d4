package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/wrenvoice/voice-scheduler/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st := store.NewMemory()
	err := st.CreateSlots(context.Background(), []store.Slot{
		{Date: "2026-02-09", Time: "09:00"},
		{Date: "2026-02-09", Time: "10:00"},
		{Date: "2026-02-09", Time: "14:00"},
		{Date: "2026-02-10", Time: "09:00"},
	})
	if err != nil {
		t.Fatalf("seed slots: %v", err)
	}

	svc, err := New(st)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestIdentifyCreatesThenReturnsExisting(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user, isNew, err := svc.Identify(ctx, "5551234567", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNew {
		t.Fatal("first contact should create the user")
	}
	if user.PhoneNumber != "5551234567" {
		t.Fatalf("unexpected phone: %s", user.PhoneNumber)
	}

	again, isNew, err := svc.Identify(ctx, "(555) 123-4567", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isNew {
		t.Fatal("repeat identify must not create a second user")
	}
	if again.PhoneNumber != user.PhoneNumber {
		t.Fatalf("identify is not idempotent: got %s want %s", again.PhoneNumber, user.PhoneNumber)
	}
}

func TestIdentifyRejectsInvalidPhone(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	if _, _, err := svc.Identify(context.Background(), "12345", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIdentifyStoresNameOnCreate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user, isNew, err := svc.Identify(ctx, "5551234567", "Dana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNew || user.Name != "Dana" {
		t.Fatalf("name not stored on create: isNew=%v name=%q", isNew, user.Name)
	}

	// A later identify with a different name never renames the record.
	again, isNew, err := svc.Identify(ctx, "5551234567", "Someone Else")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isNew || again.Name != "Dana" {
		t.Fatalf("existing user renamed: isNew=%v name=%q", isNew, again.Name)
	}
}

func TestBookLifecycle(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, "5551234567", "2026-02-09", "14:00", "checkup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != store.StatusBooked {
		t.Fatalf("unexpected status: %s", appt.Status)
	}
	if appt.Reason != "checkup" {
		t.Fatalf("unexpected reason: %s", appt.Reason)
	}

	slots, err := svc.AvailableSlots(ctx, "2026-02-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range slots {
		if s.Time == "14:00" {
			t.Fatal("booked slot still listed as available")
		}
	}

	appts, err := svc.Appointments(ctx, "5551234567", store.StatusBooked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected 1 booked appointment, got %d", len(appts))
	}
}

func TestBookUnknownSlot(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	_, err := svc.Book(context.Background(), "5551234567", "2026-03-01", "09:00", "")
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestBookTakenSlot(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, "5551234567", "2026-02-09", "09:00", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Book(ctx, "5559876543", "2026-02-09", "09:00", "")
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, "5551234567", "2026-02-09", "10:00", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	appt, err := svc.Cancel(ctx, "5551234567", "2026-02-09", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != store.StatusCancelled {
		t.Fatalf("unexpected status: %s", appt.Status)
	}

	// Freed slot is bookable again, by anyone.
	if _, err := svc.Book(ctx, "5559876543", "2026-02-09", "10:00", ""); err != nil {
		t.Fatalf("slot not freed after cancel: %v", err)
	}
}

func TestCancelMissingAppointment(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	_, err := svc.Cancel(context.Background(), "5551234567", "2026-02-09", "10:00")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestModifyPreservesIdentity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	booked, err := svc.Book(ctx, "5551234567", "2026-02-09", "09:00", "cleaning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved, err := svc.Modify(ctx, "5551234567", "2026-02-09", "09:00", "2026-02-10", "09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.ID != booked.ID {
		t.Fatal("modify must preserve the appointment identity")
	}
	if moved.Date != "2026-02-10" || moved.Time != "09:00" {
		t.Fatalf("unexpected new slot: %s %s", moved.Date, moved.Time)
	}
	if moved.Status != store.StatusBooked {
		t.Fatalf("unexpected status: %s", moved.Status)
	}

	// Old slot is free again.
	if _, err := svc.Book(ctx, "5559876543", "2026-02-09", "09:00", ""); err != nil {
		t.Fatalf("old slot not freed after modify: %v", err)
	}
}

func TestModifyToTakenSlot(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, "5551234567", "2026-02-09", "09:00", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Book(ctx, "5559876543", "2026-02-09", "10:00", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Modify(ctx, "5551234567", "2026-02-09", "09:00", "2026-02-09", "10:00")
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}

	// Failed modify must leave the original appointment untouched.
	appts, err := svc.Appointments(ctx, "5551234567", store.StatusBooked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appts) != 1 || appts[0].Date != "2026-02-09" || appts[0].Time != "09:00" {
		t.Fatalf("original appointment changed after failed modify: %+v", appts)
	}
}

func TestSaveSummaryRejectsEmpty(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	if _, err := svc.SaveSummary(context.Background(), "5551234567", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSummariesNewestFirst(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SaveSummary(ctx, "5551234567", "first call"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SaveSummary(ctx, "5551234567", "second call"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summaries, err := svc.Summaries(ctx, "5551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Summary != "second call" {
		t.Fatalf("summaries not newest first: %+v", summaries)
	}
}

func TestGroupSlots(t *testing.T) {
	t.Parallel()

	grouped := GroupSlots([]store.Slot{
		{Date: "2026-02-09", Time: "09:00"},
		{Date: "2026-02-09", Time: "10:00"},
		{Date: "2026-02-10", Time: "09:00"},
	})
	if len(grouped) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(grouped))
	}
	if len(grouped["2026-02-09"]) != 2 {
		t.Fatalf("unexpected times for 2026-02-09: %v", grouped["2026-02-09"])
	}
}
