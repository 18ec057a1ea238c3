package schedule

import (
	"time"

	"zervos/internal/timefmt"
)

// DateGate decides whether a whole calendar date can take bookings.
func DateGate(l Layers, date, now time.Time) (bool, Reason) {
	loc := date.Location()
	day := midnight(date)
	today := midnight(now.In(loc))

	if day.Before(today) {
		return false, ReasonPastDate
	}

	if l.BookingWindowDays > 0 && day.After(today.AddDate(0, 0, l.BookingWindowDays)) {
		return false, ReasonBeyondWindow
	}

	for _, r := range l.Unavailable {
		if inRange(r, day, loc) {
			return false, ReasonUnavailableRange
		}
	}

	weekday := WeekdayName(day)
	if d, ok := l.Staff.Day(weekday); ok {
		if !d.Enabled {
			return false, ReasonStaffDayOff
		}
	} else if d, ok := l.Service.Day(weekday); ok {
		if !d.Enabled {
			return false, ReasonServiceDayOff
		}
	} else if d, ok := l.Organization.Day(weekday); ok {
		if !d.Enabled {
			return false, ReasonOrgDayOff
		}
	}

	return true, ReasonNone
}

// SlotGate decides whether a single start time on an accepted date is still
// bookable. Every applicable layer must agree.
func SlotGate(l Layers, date time.Time, clock string, durationMinutes int, now time.Time) (bool, Reason) {
	start, ok := timefmt.ParseClock(clock)
	if !ok {
		return false, ReasonInvalidTime
	}
	if durationMinutes < 0 {
		durationMinutes = 0
	}
	end := start + durationMinutes

	day := midnight(date)
	dateKey := day.Format(DateLayout)
	weekday := WeekdayName(day)

	for _, sh := range l.SpecialHours {
		if sh.Date != dateKey {
			continue
		}
		sStart, ok1 := timefmt.ToMinutes(sh.StartTime)
		sEnd, ok2 := timefmt.ToMinutes(sh.EndTime)
		if ok1 && ok2 && !timefmt.Overlaps(start, max(end, start+1), sStart, sEnd) {
			return false, ReasonSpecialHours
		}
	}

	if d, ok := l.Service.Day(weekday); ok {
		if !d.Enabled {
			return false, ReasonServiceDayOff
		}
		if !within(d, start) {
			return false, ReasonOutsideHours
		}
	} else {
		d, ok := l.Organization.Day(weekday)
		if !ok {
			return false, ReasonNoSchedule
		}
		if !d.Enabled {
			return false, ReasonOrgDayOff
		}
		if !within(d, start) {
			return false, ReasonOutsideHours
		}
	}

	if d, ok := l.Staff.Day(weekday); ok {
		if !d.Enabled {
			return false, ReasonStaffDayOff
		}
		if !within(d, start) {
			return false, ReasonOutsideHours
		}
	}

	for _, b := range BreaksFor(l, weekday) {
		bStart, ok1 := timefmt.ToMinutes(b.StartTime)
		bEnd, ok2 := timefmt.ToMinutes(b.EndTime)
		if ok1 && ok2 && timefmt.Overlaps(start, end, bStart, bEnd) {
			return false, ReasonBreak
		}
	}

	if l.MinNoticeHours > 0 {
		candidate := day.Add(time.Duration(start) * time.Minute)
		if candidate.Before(now.Add(time.Duration(l.MinNoticeHours) * time.Hour)) {
			return false, ReasonMinNotice
		}
	}

	return true, ReasonNone
}

// within reports whether minute falls in [d.Start, d.End). Unparseable
// bounds impose no constraint.
func within(d DaySchedule, minute int) bool {
	s, ok1 := timefmt.ToMinutes(d.Start)
	e, ok2 := timefmt.ToMinutes(d.End)
	if !ok1 || !ok2 {
		return true
	}
	return minute >= s && minute < e
}

func inRange(r UnavailabilityRange, day time.Time, loc *time.Location) bool {
	start, err := time.ParseInLocation(DateLayout, r.StartDate, loc)
	if err != nil {
		return false
	}
	end := start
	if r.EndDate != "" {
		if end, err = time.ParseInLocation(DateLayout, r.EndDate, loc); err != nil {
			return false
		}
	}
	return !day.Before(start) && !day.After(end)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
