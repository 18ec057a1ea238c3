package booking

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zervos/internal/db"
	"zervos/internal/events"
	"zervos/internal/model"
	"zervos/internal/schedule"
	"zervos/internal/slots"
)

const ws = "ws1"

// Saturday afternoon; 2026-01-13 is the following Tuesday.
var testNow = time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)

type mockForwarder struct {
	mock.Mock
}

func (m *mockForwarder) Forward(ctx context.Context, a *model.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func weekdayHours() schedule.WeeklySchedule {
	week := schedule.WeeklySchedule{}
	for _, d := range schedule.Weekdays {
		week[d] = schedule.DaySchedule{Enabled: d != "Saturday" && d != "Sunday", Start: "09:00", End: "17:00"}
	}
	return week
}

type fixture struct {
	db      *db.DB
	engine  *Engine
	service *Service
	svc     *model.Service
	member  *model.TeamMember
}

func newFixture(t *testing.T, fwd Forwarder, tweak func(s *model.Settings)) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	store, err := db.NewDB(filepath.Join(t.TempDir(), "booking.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	settings := model.DefaultSettings(ws)
	settings.BusinessHours = weekdayHours()
	settings.Breaks = schedule.BreakMap{"Tuesday": {{StartTime: "12:00", EndTime: "13:00"}}}
	if tweak != nil {
		tweak(settings)
	}
	require.NoError(t, store.SaveSettings(ctx, settings))

	svc := &model.Service{WorkspaceID: ws, Name: "Massage", Price: 150000, DurationMinutes: 60, Active: true}
	require.NoError(t, store.SaveService(ctx, svc))
	member := &model.TeamMember{WorkspaceID: ws, Name: "Asha", Active: true}
	require.NoError(t, store.SaveMember(ctx, member))

	engine := NewEngine(store, nil, 30, 90, &logger)
	engine.now = func() time.Time { return testNow }
	service := NewService(store, engine, events.NewBus(nil), fwd, &logger)
	service.now = engine.now

	return &fixture{db: store, engine: engine, service: service, svc: svc, member: member}
}

func slotTimes(ds *DaySlots, availableOnly bool) []string {
	var out []string
	for _, s := range ds.Slots {
		if availableOnly && !s.Available {
			continue
		}
		out = append(out, s.Time)
	}
	return out
}

func TestEngineDates(t *testing.T) {
	f := newFixture(t, nil, nil)

	dates, err := f.engine.Dates(context.Background(), ws, f.svc.ID, "", "2026-01-09", "2026-01-13")
	require.NoError(t, err)
	require.Len(t, dates, 5)

	want := []struct {
		ok     bool
		reason schedule.Reason
	}{
		{false, schedule.ReasonPastDate},
		{false, schedule.ReasonOrgDayOff},
		{false, schedule.ReasonOrgDayOff},
		{true, schedule.ReasonNone},
		{true, schedule.ReasonNone},
	}
	for i, w := range want {
		assert.Equal(t, w.ok, dates[i].Available, dates[i].Date)
		assert.Equal(t, w.reason, dates[i].Reason, dates[i].Date)
	}
	assert.Equal(t, "Tuesday", dates[4].Weekday)
}

func TestEngineDatesValidation(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.engine.Dates(ctx, ws, f.svc.ID, "", "2026-01-13", "2026-01-12")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.engine.Dates(ctx, ws, f.svc.ID, "", "2026-01-01", "2026-06-01")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.engine.Dates(ctx, ws, f.svc.ID, "", "13/01/2026", "2026-01-14")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.engine.Dates(ctx, ws, "missing", "", "2026-01-13", "2026-01-14")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestEngineDatesRangeAcrossDST(t *testing.T) {
	f := newFixture(t, nil, func(s *model.Settings) { s.Timezone = "America/New_York" })
	ctx := context.Background()

	// 2026-03-08 is 23 hours long in New York.
	dates, err := f.engine.Dates(ctx, ws, f.svc.ID, "", "2026-03-01", "2026-05-29")
	require.NoError(t, err)
	assert.Len(t, dates, 90)

	_, err = f.engine.Dates(ctx, ws, f.svc.ID, "", "2026-03-01", "2026-05-30")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCalendarDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	assert.Equal(t, 1, calendarDays(time.Date(2026, 3, 8, 0, 0, 0, 0, loc), time.Date(2026, 3, 8, 0, 0, 0, 0, loc)))
	assert.Equal(t, 2, calendarDays(time.Date(2026, 3, 8, 0, 0, 0, 0, loc), time.Date(2026, 3, 9, 0, 0, 0, 0, loc)))
	assert.Equal(t, 91, calendarDays(time.Date(2026, 3, 1, 0, 0, 0, 0, loc), time.Date(2026, 5, 30, 0, 0, 0, 0, loc)))
}

func TestEngineDatesStaffVeto(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.member.Schedule = schedule.WeeklySchedule{"Tuesday": {Enabled: false}}
	require.NoError(t, f.db.SaveMember(ctx, f.member))

	dates, err := f.engine.Dates(ctx, ws, f.svc.ID, f.member.ID, "2026-01-13", "2026-01-13")
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.False(t, dates[0].Available)
	assert.Equal(t, schedule.ReasonStaffDayOff, dates[0].Reason)
}

func TestEngineSlots(t *testing.T) {
	f := newFixture(t, nil, nil)

	day, err := f.engine.Slots(context.Background(), ws, f.svc.ID, "", "2026-01-13")
	require.NoError(t, err)
	assert.True(t, day.Available)
	assert.Equal(t, schedule.SourceOrganization, day.Source)
	assert.Equal(t, "1 hr", day.Duration)
	assert.Equal(t, []string{
		"09:00 AM", "10:00 AM", "11:00 AM", "01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
	}, slotTimes(day, false))

	closed, err := f.engine.Slots(context.Background(), ws, f.svc.ID, "", "2026-01-11")
	require.NoError(t, err)
	assert.False(t, closed.Available)
	assert.Empty(t, closed.Slots)
	assert.Equal(t, schedule.ReasonOrgDayOff, closed.Reason)
}

func TestEngineSlotsMinNotice(t *testing.T) {
	f := newFixture(t, nil, func(s *model.Settings) { s.MinNoticeHours = 24 })
	f.engine.now = func() time.Time { return time.Date(2026, 1, 12, 11, 0, 0, 0, time.UTC) }

	day, err := f.engine.Slots(context.Background(), ws, f.svc.ID, "", "2026-01-13")
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00 AM", "01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM"}, slotTimes(day, false))
}

func TestEngineSlotsServiceHoursOverride(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.svc.Availability = schedule.WeeklySchedule{"Tuesday": {Enabled: true, Start: "14:00", End: "16:00"}}
	require.NoError(t, f.db.SaveService(ctx, f.svc))

	day, err := f.engine.Slots(ctx, ws, f.svc.ID, "", "2026-01-13")
	require.NoError(t, err)
	assert.Equal(t, schedule.SourceService, day.Source)
	assert.Equal(t, []string{"02:00 PM", "03:00 PM"}, slotTimes(day, false))
}

func TestBookAndCancel(t *testing.T) {
	fwd := new(mockForwarder)
	fwd.On("Forward", mock.Anything, mock.AnythingOfType("*model.Appointment")).Return(nil).Once()
	f := newFixture(t, fwd, nil)
	ctx := context.Background()

	var topics []string
	f.service.bus.SubscribeAll(func(e events.Event) error {
		topics = append(topics, e.Type)
		return nil
	})

	req := Request{
		WorkspaceID:   ws,
		ServiceID:     f.svc.ID,
		MemberID:      f.member.ID,
		Date:          "2026-01-13",
		Time:          "10:00 AM",
		CustomerName:  " Ravi ",
		CustomerPhone: "999",
	}
	a, err := f.service.Book(ctx, req)
	require.NoError(t, err)
	f.service.Wait()

	assert.Equal(t, "Ravi", a.CustomerName)
	assert.Equal(t, int64(150000), a.Price)
	assert.Equal(t, "online", a.Source)
	assert.True(t, a.StartTime.Equal(time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, a.Duration())
	assert.Equal(t, []string{events.AppointmentsUpdated, events.BookingsUpdated}, topics)
	fwd.AssertExpectations(t)

	// The member is now busy at 10:00.
	day, err := f.engine.Slots(ctx, ws, f.svc.ID, f.member.ID, "2026-01-13")
	require.NoError(t, err)
	assert.NotContains(t, slotTimes(day, true), "10:00 AM")
	assert.Contains(t, slotTimes(day, false), "10:00 AM")

	_, err = f.service.Book(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	cancelled, err := f.service.Cancel(ctx, ws, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, cancelled.Status)

	again, err := f.service.Cancel(ctx, ws, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, again.Status)

	list, err := f.service.List(ctx, ws, "2026-01-13", "2026-01-13")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.AppointmentCancelled, list[0].Status)

	_, err = f.service.Cancel(ctx, ws, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestBookRejections(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	base := Request{WorkspaceID: ws, ServiceID: f.svc.ID, Date: "2026-01-13", Time: "10:00", CustomerName: "Ravi", CustomerPhone: "999"}

	tests := []struct {
		name   string
		mutate func(r *Request)
		want   error
	}{
		{"missing phone", func(r *Request) { r.CustomerPhone = " " }, model.ErrValidation},
		{"missing name", func(r *Request) { r.CustomerName = "" }, model.ErrValidation},
		{"bad time", func(r *Request) { r.Time = "noon" }, model.ErrValidation},
		{"during break", func(r *Request) { r.Time = "12:00 PM" }, ErrSlotUnavailable},
		{"off-grid start", func(r *Request) { r.Time = "03:30 PM" }, ErrSlotUnavailable},
		{"runs past closing", func(r *Request) { r.Time = "16:45" }, ErrSlotUnavailable},
		{"last slot before closing", func(r *Request) { r.Time = "04:00 PM" }, nil},
		{"closed day", func(r *Request) { r.Date = "2026-01-11" }, ErrSlotUnavailable},
		{"past day", func(r *Request) { r.Date = "2026-01-05" }, ErrSlotUnavailable},
		{"unknown service", func(r *Request) { r.ServiceID = "nope" }, db.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.service.Book(ctx, req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBookCapacitySlots(t *testing.T) {
	f := newFixture(t, nil, func(s *model.Settings) { s.SlotManagement = true })
	ctx := context.Background()

	slot := &slots.CapacitySlot{WorkspaceID: ws, Date: "2026-01-13", StartTime: "10:00", EndTime: "11:00", MaxBookings: 1, Active: true}
	require.NoError(t, f.db.SaveCapacitySlot(ctx, slot))

	day, err := f.engine.Slots(ctx, ws, f.svc.ID, "", "2026-01-13")
	require.NoError(t, err)
	assert.True(t, day.Capacity)
	require.Len(t, day.Slots, 1)
	assert.Equal(t, slot.ID, day.Slots[0].SlotID)
	assert.Equal(t, 1, day.Slots[0].Remaining)

	req := Request{WorkspaceID: ws, ServiceID: f.svc.ID, Date: "2026-01-13", SlotID: slot.ID, CustomerName: "Ravi", CustomerPhone: "999"}
	_, err = f.service.Book(ctx, Request{WorkspaceID: ws, ServiceID: f.svc.ID, Date: "2026-01-13", CustomerName: "R", CustomerPhone: "1"})
	assert.ErrorIs(t, err, model.ErrValidation)

	a, err := f.service.Book(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, a.SlotID)
	assert.True(t, a.StartTime.Equal(time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC)))

	_, err = f.service.Book(ctx, req)
	assert.ErrorIs(t, err, db.ErrCapacityFull)

	day, err = f.engine.Slots(ctx, ws, f.svc.ID, "", "2026-01-13")
	require.NoError(t, err)
	assert.False(t, day.Available)

	_, err = f.service.Cancel(ctx, ws, a.ID)
	require.NoError(t, err)
	day, err = f.engine.Slots(ctx, ws, f.svc.ID, "", "2026-01-13")
	require.NoError(t, err)
	assert.True(t, day.Available)
}
