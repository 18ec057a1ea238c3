package slots

import (
	"sort"

	"zervos/internal/timefmt"
)

// CapacitySlot is a fixed, pre-configured slot with a booking limit.
type CapacitySlot struct {
	ID              string `json:"id"`
	WorkspaceID     string `json:"workspace_id"`
	Date            string `json:"date"`       // "2026-01-15"
	StartTime       string `json:"start_time"` // "10:00"
	EndTime         string `json:"end_time"`
	MaxBookings     int    `json:"max_bookings"`
	CurrentBookings int    `json:"current_bookings"`
	Active          bool   `json:"active"`
}

// HasCapacity reports whether another booking fits.
func (c CapacitySlot) HasCapacity() bool {
	return c.CurrentBookings < c.MaxBookings
}

// FromCapacity converts the active definitions for date into display slots,
// ordered by start time. Definitions with an unparseable start are skipped.
func FromCapacity(defs []CapacitySlot, date string) []TimeSlot {
	var out []TimeSlot
	for _, d := range defs {
		if !d.Active || d.Date != date {
			continue
		}
		start, ok := timefmt.ToMinutes(d.StartTime)
		if !ok {
			continue
		}
		remaining := d.MaxBookings - d.CurrentBookings
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, TimeSlot{
			Time:      timefmt.To12Hour(start),
			Available: d.HasCapacity(),
			Remaining: remaining,
			SlotID:    d.ID,
			minute:    start,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].minute < out[j].minute
	})
	return out
}
