package scheduler

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{name: "plain digits", in: "5551234567", want: "5551234567", valid: true},
		{name: "formatted", in: "(555) 123-4567", want: "5551234567", valid: true},
		{name: "spoken with spaces", in: "555 123 4567", want: "5551234567", valid: true},
		{name: "too short", in: "12345", valid: false},
		{name: "too long", in: "15551234567", valid: false},
		{name: "empty", in: "", valid: false},
		{name: "letters only", in: "call me maybe", valid: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizePhone(tc.in)
			if !tc.valid {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected normalization: got %s want %s", got, tc.want)
			}
		})
	}
}

func TestValidateSlot(t *testing.T) {
	t.Parallel()

	if err := ValidateSlot("2026-02-09", "14:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateSlot("02/09/2026", "14:00"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}
	if err := ValidateSlot("2026-02-09", "2pm"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad time, got %v", err)
	}
}

func TestValidateStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"", "booked", "cancelled"} {
		if err := ValidateStatus(status); err != nil {
			t.Fatalf("status %q should be valid: %v", status, err)
		}
	}
	if err := ValidateStatus("pending"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
