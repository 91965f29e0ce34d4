package tool

import (
	"fmt"
	"time"
)

// FriendlyDate renders YYYY-MM-DD the way it should be spoken, e.g.
// "Monday, February 9th". Malformed input passes through unchanged so a bad
// date never breaks a confirmation utterance.
func FriendlyDate(date string) string {
	dt, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	day := dt.Day()
	return fmt.Sprintf("%s, %s %d%s", dt.Weekday(), dt.Month(), day, ordinalSuffix(day))
}

// FriendlyTime renders HH:MM as spoken 12-hour time: "2 PM", "9:30 AM".
func FriendlyTime(tm string) string {
	dt, err := time.Parse("15:04", tm)
	if err != nil {
		return tm
	}
	if dt.Minute() == 0 {
		return dt.Format("3 PM")
	}
	return dt.Format("3:04 PM")
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
