package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCapacity(t *testing.T) {
	defs := []CapacitySlot{
		{ID: "b", Date: "2026-01-15", StartTime: "14:00", EndTime: "15:00", MaxBookings: 2, CurrentBookings: 2, Active: true},
		{ID: "a", Date: "2026-01-15", StartTime: "10:00", EndTime: "11:00", MaxBookings: 3, CurrentBookings: 1, Active: true},
		{ID: "c", Date: "2026-01-15", StartTime: "12:00", EndTime: "13:00", MaxBookings: 3, Active: false},
		{ID: "d", Date: "2026-01-16", StartTime: "12:00", EndTime: "13:00", MaxBookings: 3, Active: true},
		{ID: "e", Date: "2026-01-15", StartTime: "bad", EndTime: "13:00", MaxBookings: 3, Active: true},
	}

	got := FromCapacity(defs, "2026-01-15")

	assert.Len(t, got, 2)
	assert.Equal(t, "10:00 AM", got[0].Time)
	assert.True(t, got[0].Available)
	assert.Equal(t, 2, got[0].Remaining)
	assert.Equal(t, "a", got[0].SlotID)

	assert.Equal(t, "02:00 PM", got[1].Time)
	assert.False(t, got[1].Available)
	assert.Equal(t, 0, got[1].Remaining)
}

func TestCapacitySlot_HasCapacity(t *testing.T) {
	assert.True(t, CapacitySlot{MaxBookings: 1}.HasCapacity())
	assert.False(t, CapacitySlot{MaxBookings: 1, CurrentBookings: 1}.HasCapacity())
	assert.False(t, CapacitySlot{}.HasCapacity())
}
