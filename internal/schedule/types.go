// Package schedule resolves layered weekly schedules into bookable dates and times.
package schedule

import "time"

// DateLayout is the calendar date format used by stored schedule data.
const DateLayout = "2006-01-02"

// Weekdays lists canonical weekday names, Monday first.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName returns the canonical weekday name for t.
func WeekdayName(t time.Time) string {
	return t.Weekday().String()
}

// DaySchedule is the working window for a single weekday.
type DaySchedule struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Start   string `json:"start" yaml:"start"` // "09:00"
	End     string `json:"end" yaml:"end"`     // "17:00"
}

// WeeklySchedule maps weekday names to their schedule. A missing weekday
// means the source says nothing about that day.
type WeeklySchedule map[string]DaySchedule

// Day returns the entry for weekday, if any. Safe on a nil schedule.
func (w WeeklySchedule) Day(weekday string) (DaySchedule, bool) {
	if w == nil {
		return DaySchedule{}, false
	}
	d, ok := w[weekday]
	return d, ok
}

// BreakWindow is a recurring daily interval in which no slot may start or run.
type BreakWindow struct {
	StartTime string `json:"startTime" yaml:"start_time"`
	EndTime   string `json:"endTime" yaml:"end_time"`
}

// BreakMap groups break windows per weekday.
type BreakMap map[string][]BreakWindow

// SpecialHours overrides working hours on one calendar date.
type SpecialHours struct {
	Date      string `json:"date" yaml:"date"` // "2026-01-15"
	StartTime string `json:"startTime" yaml:"start_time"`
	EndTime   string `json:"endTime" yaml:"end_time"`
}

// UnavailabilityRange blocks every date between StartDate and EndDate inclusive.
type UnavailabilityRange struct {
	StartDate string `json:"startDate" yaml:"start_date"`
	EndDate   string `json:"endDate" yaml:"end_date"`
}

// Layers carries every schedule source that applies to one booking request.
type Layers struct {
	Staff        WeeklySchedule
	Service      WeeklySchedule
	Organization WeeklySchedule

	ServiceBreaks      BreakMap
	OrganizationBreaks BreakMap

	SpecialHours []SpecialHours
	Unavailable  []UnavailabilityRange

	// BookingWindowDays limits how far ahead a date may be booked; 0 disables.
	BookingWindowDays int
	// MinNoticeHours is the minimum lead time before a slot; 0 disables.
	MinNoticeHours int
}

// Reason explains why a date or slot was rejected.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonPastDate         Reason = "past_date"
	ReasonBeyondWindow     Reason = "beyond_window"
	ReasonUnavailableRange Reason = "unavailable_range"
	ReasonStaffDayOff      Reason = "staff_day_off"
	ReasonServiceDayOff    Reason = "service_day_off"
	ReasonOrgDayOff        Reason = "org_day_off"
	ReasonNoSchedule       Reason = "no_schedule"
	ReasonSpecialHours     Reason = "special_hours"
	ReasonOutsideHours     Reason = "outside_hours"
	ReasonBreak            Reason = "break"
	ReasonMinNotice        Reason = "min_notice"
	ReasonInvalidTime      Reason = "invalid_time"
)
