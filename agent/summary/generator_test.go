package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wrenvoice/voice-scheduler/agent/session"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func sampleActions() []session.ActionRecord {
	ts := time.Date(2026, 2, 9, 14, 5, 0, 0, time.UTC)
	return []session.ActionRecord{
		{Action: "Identified existing user: Dana", Timestamp: ts},
		{Action: "Booked appointment on 2026-02-09 at 14:00", Timestamp: ts.Add(time.Minute)},
	}
}

func TestGenerateParsesModelOutput(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: `{
		"summary": "Dana booked an appointment on 2026-02-09 at 14:00.",
		"appointments": [{"action": "booked", "date": "2026-02-09", "time": "14:00"}]
	}`}
	g := NewGenerator(llm)

	s := g.Generate(context.Background(), sampleActions(), "5551234567", "Dana")
	if !strings.Contains(s.Summary, "2026-02-09 at 14:00") {
		t.Fatalf("unexpected summary: %s", s.Summary)
	}
	if len(s.Appointments) != 1 || s.Appointments[0].Action != "booked" {
		t.Fatalf("unexpected appointments: %+v", s.Appointments)
	}
	if s.PhoneNumber != "5551234567" || s.UserName != "Dana" {
		t.Fatalf("caller fields not stamped: %+v", s)
	}
	if s.Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}

	// The prompt carries the caller context and the action log.
	if !strings.Contains(llm.prompt, "Dana") || !strings.Contains(llm.prompt, "Booked appointment on 2026-02-09 at 14:00") {
		t.Fatalf("prompt missing context: %s", llm.prompt)
	}
}

func TestGenerateStripsCodeFence(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: "```json\n{\"summary\": \"Booked 2026-02-09 at 14:00.\", \"appointments\": []}\n```"}
	g := NewGenerator(llm)

	s := g.Generate(context.Background(), sampleActions(), "5551234567", "Dana")
	if s.Summary != "Booked 2026-02-09 at 14:00." {
		t.Fatalf("unexpected summary: %s", s.Summary)
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{err: errors.New("model unavailable")}
	g := NewGenerator(llm)

	s := g.Generate(context.Background(), sampleActions(), "5551234567", "Dana")
	if !strings.Contains(s.Summary, "2 action(s) performed") {
		t.Fatalf("unexpected fallback summary: %s", s.Summary)
	}
	if len(s.Appointments) != 1 {
		t.Fatalf("fallback should keep the booking action: %+v", s.Appointments)
	}
}

func TestGenerateFallsBackOnMalformedJSON(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{response: "Sure! Here is your summary: the caller booked an appointment."}
	g := NewGenerator(llm)

	s := g.Generate(context.Background(), sampleActions(), "5551234567", "")
	if !strings.Contains(s.Summary, "action(s) performed") {
		t.Fatalf("expected fallback summary, got: %s", s.Summary)
	}
}

func TestGenerateWithoutClient(t *testing.T) {
	t.Parallel()

	g := NewGenerator(nil)
	s := g.Generate(context.Background(), nil, "", "")
	if !strings.Contains(s.Summary, "0 action(s) performed") {
		t.Fatalf("unexpected summary: %s", s.Summary)
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "{\"a\":1}", want: "{\"a\":1}"},
		{in: "```\n{\"a\":1}\n```", want: "{\"a\":1}"},
		{in: "```json\n{\"a\":1}\n```", want: "{\"a\":1}"},
		{in: "  {\"a\":1}  ", want: "{\"a\":1}"},
	}
	for _, tc := range cases {
		if got := StripCodeFence(tc.in); got != tc.want {
			t.Fatalf("StripCodeFence(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderFull(t *testing.T) {
	t.Parallel()

	s := Summary{
		Summary: "Dana moved her appointment.",
		Appointments: []AppointmentAction{
			{Action: "modified", Date: "2026-02-09", Time: "14:00", NewDate: "2026-02-10", NewTime: "09:00"},
		},
	}
	got := RenderFull(s)
	want := "Dana moved her appointment. | Appointments: Modified on 2026-02-09 at 14:00 -> moved to 2026-02-10 at 09:00"
	if got != want {
		t.Fatalf("unexpected rendering:\ngot  %s\nwant %s", got, want)
	}
}
