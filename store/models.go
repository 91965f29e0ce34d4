package store

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

// User is keyed by the normalized 10-digit phone number. Name is optional
// and may be filled in after first contact.
type User struct {
	bun.BaseModel `bun:"table:users"`

	PhoneNumber string    `bun:"phone_number,pk" json:"phone_number"`
	Name        string    `bun:"name,nullzero" json:"name,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Slot is a bookable (date, time) unit. Slots are seeded by an admin
// process and only ever flip between booked and available.
type Slot struct {
	bun.BaseModel `bun:"table:slots"`

	Date     string `bun:"date,pk" json:"date"`
	Time     string `bun:"time,pk" json:"time"`
	IsBooked bool   `bun:"is_booked" json:"is_booked"`
}

// Appointment is a booking record. Cancelled appointments are retained for
// history and never re-activated; Modify mutates date/time in place.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID          string    `bun:"id,pk" json:"id"`
	PhoneNumber string    `bun:"phone_number,notnull" json:"phone_number"`
	Date        string    `bun:"date,notnull" json:"date"`
	Time        string    `bun:"time,notnull" json:"time"`
	Status      string    `bun:"status,notnull" json:"status"`
	Reason      string    `bun:"reason,nullzero" json:"reason,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// CallSummary is the persisted end-of-call record. Immutable once written.
type CallSummary struct {
	bun.BaseModel `bun:"table:call_summaries"`

	ID          string    `bun:"id,pk" json:"id"`
	PhoneNumber string    `bun:"phone_number,notnull" json:"phone_number"`
	Summary     string    `bun:"summary,notnull" json:"summary"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
