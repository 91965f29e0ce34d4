package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestConcurrentBookingSingleWinner(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	if err := m.CreateSlots(ctx, []Slot{{Date: "2026-02-09", Time: "09:00"}}); err != nil {
		t.Fatalf("seed slots: %v", err)
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := fmt.Sprintf("55512345%02d", i)
			_, err := m.BookAppointment(ctx, phone, "2026-02-09", "09:00", "")
			results[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrSlotUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}

	slots, err := m.AvailableSlots(ctx, "2026-02-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("slot should be booked, got %d available", len(slots))
	}
}

func TestCreateSlotsKeepsExisting(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	if err := m.CreateSlots(ctx, []Slot{{Date: "2026-02-09", Time: "09:00"}}); err != nil {
		t.Fatalf("seed slots: %v", err)
	}
	if _, err := m.BookAppointment(ctx, "5551234567", "2026-02-09", "09:00", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Re-seeding must not reopen a booked slot.
	if err := m.CreateSlots(ctx, []Slot{{Date: "2026-02-09", Time: "09:00"}}); err != nil {
		t.Fatalf("re-seed slots: %v", err)
	}
	slots, err := m.AvailableSlots(ctx, "2026-02-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatal("re-seeding reopened a booked slot")
	}
}

func TestUserRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if _, err := m.UserByPhone(ctx, "5551234567"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	created, err := m.CreateUser(ctx, "5551234567", "Dana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := m.UserByPhone(ctx, "5551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != created.Name || got.PhoneNumber != created.PhoneNumber {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, created)
	}
}
