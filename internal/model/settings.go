package model

import (
	"time"

	"zervos/internal/schedule"
)

// Settings holds per-workspace booking configuration.
type Settings struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Timezone    string `json:"timezone"`

	// BusinessHours is nil when the organization has not configured hours.
	BusinessHours schedule.WeeklySchedule        `json:"business_hours,omitempty"`
	Breaks        schedule.BreakMap              `json:"breaks,omitempty"`
	SpecialHours  []schedule.SpecialHours        `json:"special_hours,omitempty"`
	Unavailable   []schedule.UnavailabilityRange `json:"unavailable,omitempty"`

	BookingWindowDays int  `json:"booking_window_days"`
	MinNoticeHours    int  `json:"min_notice_hours"`
	SlotMinutes       int  `json:"slot_minutes"`
	SlotManagement    bool `json:"slot_management"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns settings for a workspace that has none stored.
func DefaultSettings(workspaceID string) *Settings {
	return &Settings{
		WorkspaceID: workspaceID,
		Timezone:    "UTC",
		Breaks:      schedule.NormalizeBreaks(nil),
		SlotMinutes: 30,
	}
}

// Location resolves the workspace time zone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	if s == nil || s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the settings and returns an ErrValidation on failure.
func (s *Settings) Validate() error {
	if s.WorkspaceID == "" {
		return Invalid("workspace id is required")
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return Invalid("unknown timezone %q", s.Timezone)
		}
	}
	if s.BookingWindowDays < 0 || s.MinNoticeHours < 0 || s.SlotMinutes < 0 {
		return Invalid("booking_window_days, min_notice_hours and slot_minutes cannot be negative")
	}
	checks := []error{
		schedule.ValidateWeek(s.BusinessHours, "business_hours"),
		schedule.ValidateBreaks(s.Breaks, "breaks"),
		schedule.ValidateSpecialHours(s.SpecialHours, "special_hours"),
		schedule.ValidateUnavailable(s.Unavailable, "unavailable"),
	}
	for _, err := range checks {
		if err != nil {
			return Invalid("%v", err)
		}
	}
	return nil
}
