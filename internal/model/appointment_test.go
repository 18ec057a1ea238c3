package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datetime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestAppointment_Duration(t *testing.T) {
	a := Appointment{
		StartTime: datetime(2026, 1, 15, 10, 0),
		EndTime:   datetime(2026, 1, 15, 11, 30),
	}
	assert.Equal(t, 90*time.Minute, a.Duration())
}

func TestAppointment_OverlapsWith(t *testing.T) {
	existing := Appointment{
		StartTime: datetime(2026, 1, 15, 10, 0),
		EndTime:   datetime(2026, 1, 15, 12, 0),
	}

	before := Appointment{StartTime: datetime(2026, 1, 15, 9, 0), EndTime: datetime(2026, 1, 15, 10, 0)}
	assert.False(t, existing.OverlapsWith(&before))

	after := Appointment{StartTime: datetime(2026, 1, 15, 12, 0), EndTime: datetime(2026, 1, 15, 13, 0)}
	assert.False(t, existing.OverlapsWith(&after))

	during := Appointment{StartTime: datetime(2026, 1, 15, 11, 0), EndTime: datetime(2026, 1, 15, 13, 0)}
	assert.True(t, existing.OverlapsWith(&during))
}

func TestSettings_Location(t *testing.T) {
	var nilSettings *Settings
	assert.Equal(t, time.UTC, nilSettings.Location())

	s := DefaultSettings("ws1")
	assert.Equal(t, time.UTC, s.Location())

	s.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, s.Location())

	s.Timezone = "Asia/Kolkata"
	assert.Equal(t, "Asia/Kolkata", s.Location().String())
}
