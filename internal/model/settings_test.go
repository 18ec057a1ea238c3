package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zervos/internal/schedule"
)

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings("ws1")
	s.BusinessHours = schedule.WeeklySchedule{"Monday": {Enabled: true, Start: "09:00", End: "17:00"}}
	assert.NoError(t, s.Validate())

	bad := *s
	bad.BusinessHours = schedule.WeeklySchedule{"Monday": {Enabled: true, Start: "17:00", End: "09:00"}}
	err := bad.Validate()
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "business_hours.Monday")

	bad = *s
	bad.SlotMinutes = -5
	assert.ErrorIs(t, bad.Validate(), ErrValidation)

	bad = *s
	bad.Unavailable = []schedule.UnavailabilityRange{{StartDate: "2026-02-10", EndDate: "2026-02-01"}}
	assert.ErrorIs(t, bad.Validate(), ErrValidation)

	bad = *s
	bad.WorkspaceID = ""
	assert.ErrorIs(t, bad.Validate(), ErrValidation)
}

func TestCatalog_Validate(t *testing.T) {
	svc := &Service{Name: "  Haircut ", Price: 50000, DurationMinutes: 45}
	assert.NoError(t, svc.Validate())
	assert.Equal(t, "Haircut", svc.Name)

	svc.Availability = schedule.WeeklySchedule{"Moonday": {Enabled: true, Start: "09:00", End: "10:00"}}
	assert.ErrorIs(t, svc.Validate(), ErrValidation)

	assert.ErrorIs(t, (&Service{Name: "x", Price: -1}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Product{Name: " "}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Product{Name: "Gel", Stock: -2}).Validate(), ErrValidation)
	assert.NoError(t, (&Product{Name: "Gel", Stock: 2}).Validate())
	assert.ErrorIs(t, (&TeamMember{}).Validate(), ErrValidation)
	assert.NoError(t, (&TeamMember{Name: "Asha"}).Validate())
}
