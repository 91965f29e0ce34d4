// Package summary turns a call's action log into the end-of-call record:
// a short natural-language paragraph plus structured per-appointment
// actions. The generative path is best-effort; the deterministic fallback
// guarantees a summary always exists before call teardown.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wrenvoice/voice-scheduler/agent/prompt"
	"github.com/wrenvoice/voice-scheduler/agent/session"
)

// AppointmentAction is one structured entry of the summary.
type AppointmentAction struct {
	Action  string `json:"action"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	NewDate string `json:"new_date,omitempty"`
	NewTime string `json:"new_time,omitempty"`
	Details string `json:"details,omitempty"`
}

// Summary is the generated end-of-call record. It is also the side-channel
// payload shape, minus the type tag added at publish time.
type Summary struct {
	Summary      string              `json:"summary"`
	Appointments []AppointmentAction `json:"appointments"`
	Timestamp    time.Time           `json:"timestamp"`
	PhoneNumber  string              `json:"phone_number,omitempty"`
	UserName     string              `json:"user_name,omitempty"`
}

// ChatCompleter is the generative collaborator; pkg/groq satisfies it.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Generator struct {
	llm      ChatCompleter
	template string
	now      func() time.Time
}

func NewGenerator(llm ChatCompleter) *Generator {
	return &Generator{
		llm:      llm,
		template: prompt.LoadPromptSet().Summary,
		now:      time.Now,
	}
}

// Generate produces the call summary. Any failure of the generative path
// (no client, timeout, malformed output) falls back to a deterministic
// summary built from the action log; Generate itself never fails.
func (g *Generator) Generate(ctx context.Context, actions []session.ActionRecord, phone, name string) Summary {
	s, err := g.generateLLM(ctx, actions, phone, name)
	if err != nil {
		log.Warn().Err(err).Msg("generative summary failed, using fallback")
		s = fallbackSummary(actions, phone, name)
	}
	s.Timestamp = g.now().UTC()
	s.PhoneNumber = phone
	s.UserName = name
	return s
}

func (g *Generator) generateLLM(ctx context.Context, actions []session.ActionRecord, phone, name string) (Summary, error) {
	if g.llm == nil {
		return Summary{}, fmt.Errorf("no summarizer client configured")
	}

	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		lines = append(lines, fmt.Sprintf("- [%s] %s", a.Timestamp.Format(time.RFC3339), a.Action))
	}
	actionsText := strings.Join(lines, "\n")
	if actionsText == "" {
		actionsText = "No specific actions were taken during this call."
	}

	p := strings.NewReplacer(
		"{actions}", actionsText,
		"{name}", orDefault(name, "Not provided"),
		"{phone}", orDefault(phone, "Not provided"),
	).Replace(g.template)

	content, err := g.llm.Complete(ctx, p)
	if err != nil {
		return Summary{}, fmt.Errorf("summary completion: %w", err)
	}

	var s Summary
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &s); err != nil {
		return Summary{}, fmt.Errorf("parse summary json: %w", err)
	}
	if strings.TrimSpace(s.Summary) == "" {
		return Summary{}, fmt.Errorf("summary text is empty")
	}
	return s, nil
}

// fallbackSummary is the last line of defense before call teardown: a
// counted-actions sentence plus a structured list filtered from the raw log.
// Date/time stay empty since the log holds free-text descriptions only.
func fallbackSummary(actions []session.ActionRecord, phone, name string) Summary {
	var appts []AppointmentAction
	for _, a := range actions {
		lower := strings.ToLower(a.Action)
		if strings.Contains(lower, "booked") ||
			strings.Contains(lower, "cancelled") ||
			strings.Contains(lower, "modified") {
			appts = append(appts, AppointmentAction{Action: a.Action, Details: a.Action})
		}
	}
	return Summary{
		Summary: fmt.Sprintf("Call with %s (%s). %d action(s) performed during the call.",
			orDefault(name, "caller"), orDefault(phone, "unknown"), len(actions)),
		Appointments: appts,
	}
}

// StripCodeFence removes a markdown code fence the model may have wrapped
// its JSON in, fences with language tags included.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// RenderFull appends a machine-readable rendering of each structured action
// after the narrative, pipe-separated. This is the persisted form.
func RenderFull(s Summary) string {
	parts := []string{s.Summary}
	if len(s.Appointments) > 0 {
		lines := make([]string, 0, len(s.Appointments))
		for _, a := range s.Appointments {
			line := capitalize(a.Action)
			if a.Date != "" {
				line += " on " + a.Date
			}
			if a.Time != "" {
				line += " at " + a.Time
			}
			if a.NewDate != "" && a.NewTime != "" {
				line += " -> moved to " + a.NewDate + " at " + a.NewTime
			}
			if a.Details != "" {
				line += " (" + a.Details + ")"
			}
			lines = append(lines, line)
		}
		parts = append(parts, "Appointments: "+strings.Join(lines, "; "))
	}
	return strings.Join(parts, " | ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
