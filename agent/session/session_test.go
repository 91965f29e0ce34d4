package session

import (
	"testing"

	"github.com/wrenvoice/voice-scheduler/store"
)

func TestIdentify(t *testing.T) {
	t.Parallel()

	s := New()
	if s.Identified() {
		t.Fatal("fresh session must not be identified")
	}
	if s.UserName() != "" {
		t.Fatalf("unexpected user name: %s", s.UserName())
	}

	s.Identify(&store.User{PhoneNumber: "5551234567", Name: "Dana"}, "5551234567")
	if !s.Identified() {
		t.Fatal("session should be identified")
	}
	if s.PhoneNumber() != "5551234567" {
		t.Fatalf("unexpected phone: %s", s.PhoneNumber())
	}
	if s.UserName() != "Dana" {
		t.Fatalf("unexpected name: %s", s.UserName())
	}
}

func TestTrackOrdersActions(t *testing.T) {
	t.Parallel()

	s := New()
	s.Track("Identified existing user: Dana")
	s.Track("Booked appointment on 2026-02-09 at 14:00")

	actions := s.ActionLog()
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].Action != "Identified existing user: Dana" {
		t.Fatalf("unexpected first action: %s", actions[0].Action)
	}
	if actions[1].Timestamp.Before(actions[0].Timestamp) {
		t.Fatal("action timestamps out of order")
	}
}

func TestActionLogReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	s.Track("first")

	actions := s.ActionLog()
	actions[0].Action = "mutated"

	if s.ActionLog()[0].Action != "first" {
		t.Fatal("ActionLog must return a copy")
	}
}
