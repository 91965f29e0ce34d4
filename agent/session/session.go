// Package session holds the mutable state scoped to one live call. It is
// process-local for the duration of the call and discarded at hangup; only
// the summary derived from its action log is persisted.
package session

import (
	"time"

	"github.com/wrenvoice/voice-scheduler/store"
)

// ActionRecord is one entry in the ordered action log consumed by the
// call-summary generator.
type ActionRecord struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Session tracks the identified caller and everything the tools did during
// the call. A session serves exactly one conversation: tools run one at a
// time, strictly ordered by conversational turn, so no locking is needed.
type Session struct {
	user        *store.User
	phoneNumber string
	actions     []ActionRecord

	now func() time.Time
}

func New() *Session {
	return &Session{now: time.Now}
}

// Identify records the caller once the identify tool has resolved them.
// Re-identification with a different number replaces the previous identity.
func (s *Session) Identify(user *store.User, phone string) {
	s.user = user
	s.phoneNumber = phone
}

// Identified reports whether a phone number has been established for this
// call. Every tool except identification requires it.
func (s *Session) Identified() bool {
	return s.phoneNumber != ""
}

func (s *Session) PhoneNumber() string {
	return s.phoneNumber
}

func (s *Session) User() *store.User {
	return s.user
}

// UserName returns the identified caller's name, or "" when unknown.
func (s *Session) UserName() string {
	if s.user == nil {
		return ""
	}
	return s.user.Name
}

// Track appends a timestamped action description to the log.
func (s *Session) Track(action string) {
	s.actions = append(s.actions, ActionRecord{
		Action:    action,
		Timestamp: s.now().UTC(),
	})
}

// ActionLog returns a copy of the ordered action log.
func (s *Session) ActionLog() []ActionRecord {
	out := make([]ActionRecord, len(s.actions))
	copy(out, s.actions)
	return out
}
