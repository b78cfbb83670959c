// Package timeslot holds the pure time arithmetic behind availability:
// weekday resolution, HH:MM parsing, and slot generation. Everything
// here is deterministic and safe to cache.
package timeslot

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultIntervalMinutes = 30
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// IsWeekday reports whether name is a lowercase weekday name.
func IsWeekday(name string) bool {
	return weekdays[name]
}

// DayName maps a YYYY-MM-DD date to its lowercase weekday name.
func DayName(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return strings.ToLower(d.Weekday().String()), nil
}

// MinutesOf converts an HH:MM string to minutes since midnight.
func MinutesOf(hhmm string) (int, error) {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Generate produces the ordered slot-start labels between open and
// close, advancing by interval minutes. A slot starting at or after
// close is excluded, so open == close yields an empty sequence and a
// trailing partial period yields no extra slot.
func Generate(open, close string, intervalMinutes int) ([]string, error) {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}

	openMins, err := MinutesOf(open)
	if err != nil {
		return nil, err
	}
	closeMins, err := MinutesOf(close)
	if err != nil {
		return nil, err
	}

	var slots []string
	for current := openMins; current < closeMins; current += intervalMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", current/60, current%60))
	}
	return slots, nil
}

// Contains reports whether slot is one of the generated labels.
func Contains(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

// SlotInstant parses date and slot as a naive UTC instant, used for the
// cancellation cutoff comparison.
func SlotInstant(date, slot string) (time.Time, error) {
	return time.Parse(DateLayout+" "+TimeLayout, date+" "+slot)
}
