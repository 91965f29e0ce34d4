package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/wrenvoice/voice-scheduler/store"
)

// NormalizePhone strips everything but digits and requires exactly ten of
// them, so "(415) 555-1234" and "415.555.1234" key the same user.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if len(normalized) != 10 {
		return "", fmt.Errorf("%w: phone number %q must have exactly 10 digits", ErrInvalidInput, phone)
	}
	return normalized, nil
}

// ValidateDate accepts YYYY-MM-DD.
func ValidateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}
	return nil
}

// ValidateTime accepts HH:MM in 24-hour form.
func ValidateTime(tm string) error {
	if _, err := time.Parse("15:04", tm); err != nil {
		return fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, tm)
	}
	return nil
}

func ValidateSlot(date, tm string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	return ValidateTime(tm)
}

// ValidateStatus accepts the empty filter or a known appointment status.
func ValidateStatus(status string) error {
	switch status {
	case "", store.StatusBooked, store.StatusCancelled:
		return nil
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
}
