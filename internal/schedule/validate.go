package schedule

import (
	"fmt"
	"slices"
	"time"
)

// ValidateWeek checks weekday names and the window of every enabled day.
func ValidateWeek(week WeeklySchedule, prefix string) error {
	for day, d := range week {
		if !slices.Contains(Weekdays, day) {
			return fmt.Errorf("%s: invalid weekday '%s'", prefix, day)
		}
		if !d.Enabled {
			continue
		}
		if err := ValidateWindow(d.Start, d.End, prefix+"."+day); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBreaks checks weekday names and every break window.
func ValidateBreaks(breaks BreakMap, prefix string) error {
	for day, windows := range breaks {
		if !slices.Contains(Weekdays, day) {
			return fmt.Errorf("%s: invalid weekday '%s'", prefix, day)
		}
		for i, w := range windows {
			if err := ValidateWindow(w.StartTime, w.EndTime, fmt.Sprintf("%s.%s[%d]", prefix, day, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateWindow requires two HH:MM times with end after start.
func ValidateWindow(start, end, prefix string) error {
	startTime, err := time.Parse("15:04", start)
	if err != nil {
		return fmt.Errorf("%s: invalid start '%s', expected HH:MM", prefix, start)
	}
	endTime, err := time.Parse("15:04", end)
	if err != nil {
		return fmt.Errorf("%s: invalid end '%s', expected HH:MM", prefix, end)
	}
	if !endTime.After(startTime) {
		return fmt.Errorf("%s: end must be after start", prefix)
	}
	return nil
}

// ValidateDate requires a YYYY-MM-DD date.
func ValidateDate(date, prefix string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%s: invalid date '%s', expected YYYY-MM-DD", prefix, date)
	}
	return nil
}

// ValidateSpecialHours checks override dates and windows.
func ValidateSpecialHours(hours []SpecialHours, prefix string) error {
	for i, sh := range hours {
		p := fmt.Sprintf("%s[%d]", prefix, i)
		if err := ValidateDate(sh.Date, p+".date"); err != nil {
			return err
		}
		if err := ValidateWindow(sh.StartTime, sh.EndTime, p); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUnavailable checks range dates. An empty end means a single day.
func ValidateUnavailable(ranges []UnavailabilityRange, prefix string) error {
	for i, r := range ranges {
		p := fmt.Sprintf("%s[%d]", prefix, i)
		if err := ValidateDate(r.StartDate, p+".start_date"); err != nil {
			return err
		}
		if r.EndDate == "" {
			continue
		}
		if err := ValidateDate(r.EndDate, p+".end_date"); err != nil {
			return err
		}
		if r.EndDate < r.StartDate {
			return fmt.Errorf("%s: end_date before start_date", p)
		}
	}
	return nil
}
