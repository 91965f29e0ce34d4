package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and credential-less local
// runs. A single mutex stands in for the per-row atomicity the database
// provides, so the single-winner booking property holds here too.
type Memory struct {
	mu           sync.Mutex
	users        map[string]*User
	slots        map[string]*Slot // keyed date|time
	appointments []*Appointment
	summaries    []*CallSummary
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]*User),
		slots: make(map[string]*Slot),
	}
}

func slotKey(date, tm string) string {
	return date + "|" + tm
}

// CreateSlots seeds calendar slots, mirroring Postgres.CreateSlots.
// Existing slots are left untouched.
func (m *Memory) CreateSlots(_ context.Context, slots []Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range slots {
		key := slotKey(s.Date, s.Time)
		if _, ok := m.slots[key]; ok {
			continue
		}
		copied := s
		m.slots[key] = &copied
	}
	return nil
}

func (m *Memory) UserByPhone(_ context.Context, phone string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[phone]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *Memory) CreateUser(_ context.Context, phone, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &User{PhoneNumber: phone, Name: name, CreatedAt: time.Now().UTC()}
	m.users[phone] = user
	copied := *user
	return &copied, nil
}

func (m *Memory) AvailableSlots(_ context.Context, date string) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Slot
	for _, s := range m.slots {
		if s.IsBooked {
			continue
		}
		if date != "" && s.Date != date {
			continue
		}
		out = append(out, *s)
	}
	// ISO dates and 24-hour times order correctly as strings.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (m *Memory) ActiveAppointmentAt(_ context.Context, date, tm string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.Date == date && a.Time == tm && a.Status == StatusBooked {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *Memory) BookAppointment(_ context.Context, phone, date, tm, reason string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[slotKey(date, tm)]
	if !ok || slot.IsBooked {
		return nil, ErrSlotUnavailable
	}
	slot.IsBooked = true

	appt := &Appointment{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Date:        date,
		Time:        tm,
		Status:      StatusBooked,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}
	m.appointments = append(m.appointments, appt)
	copied := *appt
	return &copied, nil
}

func (m *Memory) AppointmentsByPhone(_ context.Context, phone, status string) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Appointment
	for _, a := range m.appointments {
		if a.PhoneNumber != phone {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (m *Memory) CancelAppointment(_ context.Context, phone, date, tm string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.appointments {
		if a.PhoneNumber != phone || a.Date != date || a.Time != tm || a.Status != StatusBooked {
			continue
		}
		a.Status = StatusCancelled
		if slot, ok := m.slots[slotKey(date, tm)]; ok {
			slot.IsBooked = false
		}
		copied := *a
		return &copied, nil
	}
	return nil, ErrAppointmentNotFound
}

func (m *Memory) ModifyAppointment(_ context.Context, phone, oldDate, oldTime, newDate, newTime string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	newSlot, ok := m.slots[slotKey(newDate, newTime)]
	if !ok || newSlot.IsBooked {
		return nil, ErrSlotUnavailable
	}

	for _, a := range m.appointments {
		if a.PhoneNumber != phone || a.Date != oldDate || a.Time != oldTime || a.Status != StatusBooked {
			continue
		}
		newSlot.IsBooked = true
		if oldSlot, ok := m.slots[slotKey(oldDate, oldTime)]; ok {
			oldSlot.IsBooked = false
		}
		a.Date = newDate
		a.Time = newTime
		copied := *a
		return &copied, nil
	}
	return nil, ErrAppointmentNotFound
}

func (m *Memory) SaveCallSummary(_ context.Context, phone, summary string) (*CallSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if phone == "" {
		phone = "unknown"
	}
	record := &CallSummary{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Summary:     summary,
		CreatedAt:   time.Now().UTC(),
	}
	m.summaries = append(m.summaries, record)
	copied := *record
	return &copied, nil
}

func (m *Memory) SummariesByPhone(_ context.Context, phone string) ([]CallSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Reverse insertion order: newest first even when timestamps tie.
	var out []CallSummary
	for i := len(m.summaries) - 1; i >= 0; i-- {
		if m.summaries[i].PhoneNumber == phone {
			out = append(out, *m.summaries[i])
		}
	}
	return out, nil
}
