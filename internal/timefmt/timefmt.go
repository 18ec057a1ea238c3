// Package timefmt converts between wall-clock strings and minute offsets.
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// ToMinutes parses "HH:MM" into minutes since midnight.
// The second result is false when the input is malformed.
func ToMinutes(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, false
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}

	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}

	return hour*60 + minute, true
}

// To12Hour formats minutes since midnight as "hh:mm AM/PM".
func To12Hour(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	hour := minutes / 60
	minute := minutes % 60

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, minute, suffix)
}

// From12Hour parses "hh:mm AM/PM" back into minutes since midnight.
func From12Hour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, " ")
	if idx < 0 {
		return 0, false
	}

	clock, suffix := s[:idx], strings.ToUpper(strings.TrimSpace(s[idx+1:]))
	minutes, ok := ToMinutes(clock)
	if !ok {
		return 0, false
	}

	hour := minutes / 60
	if hour < 1 || hour > 12 {
		return 0, false
	}
	hour %= 12

	switch suffix {
	case "AM":
	case "PM":
		hour += 12
	default:
		return 0, false
	}

	return hour*60 + minutes%60, true
}

// ParseClock accepts either a 24-hour "HH:MM" or a 12-hour "hh:mm AM/PM" string.
func ParseClock(s string) (int, bool) {
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		return From12Hour(s)
	}
	return ToMinutes(s)
}

// Format24 formats minutes since midnight as "HH:MM".
func Format24(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}
