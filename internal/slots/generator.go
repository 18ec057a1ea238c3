package slots

import (
	"fmt"
	"iter"

	"zervos/internal/schedule"
	"zervos/internal/timefmt"
)

// DefaultInterval is used when no slot size or service duration is known.
const DefaultInterval = 30

// TimeSlot is a candidate start time for display.
type TimeSlot struct {
	Time      string `json:"time"` // "09:30 AM"
	Available bool   `json:"available"`
	Remaining int    `json:"remaining,omitempty"`
	SlotID    string `json:"slot_id,omitempty"`

	minute int
}

// Minute returns the slot start as minutes since midnight.
func (s TimeSlot) Minute() int {
	return s.minute
}

// Generate yields start times from start every interval minutes while the
// whole interval still fits before end. Candidates overlapping a break are
// skipped. The sequence can be ranged over any number of times.
func Generate(start, end string, interval int, breaks []schedule.BreakWindow) iter.Seq[TimeSlot] {
	return func(yield func(TimeSlot) bool) {
		from, ok := timefmt.ToMinutes(start)
		if !ok {
			return
		}
		to, ok := timefmt.ToMinutes(end)
		if !ok {
			return
		}
		if interval <= 0 {
			interval = DefaultInterval
		}

		for cursor := from; cursor+interval <= to; cursor += interval {
			if overlapsBreak(cursor, cursor+interval, breaks) {
				continue
			}
			if !yield(TimeSlot{Time: timefmt.To12Hour(cursor), Available: true, minute: cursor}) {
				return
			}
		}
	}
}

func overlapsBreak(start, end int, breaks []schedule.BreakWindow) bool {
	for _, b := range breaks {
		bStart, ok1 := timefmt.ToMinutes(b.StartTime)
		bEnd, ok2 := timefmt.ToMinutes(b.EndTime)
		if !ok1 || !ok2 {
			continue
		}
		if timefmt.Overlaps(start, end, bStart, bEnd) {
			return true
		}
	}
	return false
}

// AvailableOnly returns only available slots.
func AvailableOnly(slots []TimeSlot) []TimeSlot {
	var available []TimeSlot
	for _, s := range slots {
		if s.Available {
			available = append(available, s)
		}
	}
	return available
}

// FormatDuration formats minutes as a short human string.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		if hours == 1 {
			return "1 hr"
		}
		return fmt.Sprintf("%d hrs", hours)
	}
	return fmt.Sprintf("%d hr %d min", hours, mins)
}
