package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zervos/internal/config"
	"zervos/internal/model"
	"zervos/internal/pricing"
	"zervos/internal/schedule"
	"zervos/internal/slots"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetSettings(ctx, "ws1")
	assert.ErrorIs(t, err, ErrNotFound)

	def, err := db.SettingsOrDefault(ctx, "ws1")
	require.NoError(t, err)
	assert.Equal(t, 30, def.SlotMinutes)
	assert.Len(t, def.Breaks, 7)

	s := model.DefaultSettings("ws1")
	s.Name = "Studio"
	s.BusinessHours = schedule.WeeklySchedule{"Monday": {Enabled: true, Start: "09:00", End: "17:00"}}
	s.Breaks = schedule.BreakMap{"Monday": {{StartTime: "12:00", EndTime: "13:00"}}}
	s.SpecialHours = []schedule.SpecialHours{{Date: "2026-02-01", StartTime: "10:00", EndTime: "12:00"}}
	s.BookingWindowDays = 14
	s.SlotManagement = true
	require.NoError(t, db.SaveSettings(ctx, s))

	got, err := db.GetSettings(ctx, "ws1")
	require.NoError(t, err)
	assert.Equal(t, "Studio", got.Name)
	assert.Equal(t, "09:00", got.BusinessHours["Monday"].Start)
	assert.Len(t, got.Breaks, 7)
	assert.Equal(t, "12:00", got.Breaks["Monday"][0].StartTime)
	assert.Equal(t, 14, got.BookingWindowDays)
	assert.True(t, got.SlotManagement)
	require.Len(t, got.SpecialHours, 1)

	ids, err := db.ListWorkspaceIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ws1"}, ids)
}

func TestSettingsCorruptColumnsFallBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveSettings(ctx, model.DefaultSettings("ws1")))
	_, err := db.ExecContext(ctx,
		`UPDATE settings SET business_hours = '{broken', breaks = 'nope' WHERE workspace_id = 'ws1'`)
	require.NoError(t, err)

	got, err := db.GetSettings(ctx, "ws1")
	require.NoError(t, err)
	assert.Nil(t, got.BusinessHours)
	assert.Len(t, got.Breaks, 7)
	assert.Empty(t, got.Breaks["Monday"])
}

func TestServiceCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	svc := &model.Service{
		WorkspaceID:     "ws1",
		Name:            "Haircut",
		Price:           50000,
		DurationMinutes: 45,
		Active:          true,
		Availability:    schedule.WeeklySchedule{"Tuesday": {Enabled: true, Start: "10:00", End: "14:00"}},
	}
	require.NoError(t, db.SaveService(ctx, svc))
	require.NotEmpty(t, svc.ID)

	got, err := db.GetService(ctx, "ws1", svc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), got.Price)
	assert.Equal(t, "14:00", got.Availability["Tuesday"].End)
	assert.Nil(t, got.Breaks)

	_, err = db.GetService(ctx, "other", svc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	svc.Price = 60000
	require.NoError(t, db.SaveService(ctx, svc))
	list, err := db.ListServices(ctx, "ws1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(60000), list[0].Price)

	require.NoError(t, db.DeleteService(ctx, "ws1", svc.ID))
	assert.ErrorIs(t, db.DeleteService(ctx, "ws1", svc.ID), ErrNotFound)
}

func TestMemberAndProductCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := &model.TeamMember{WorkspaceID: "ws1", Name: "Asha", Active: true,
		Schedule: schedule.WeeklySchedule{"Monday": {Enabled: false}}}
	require.NoError(t, db.SaveMember(ctx, m))
	got, err := db.GetMember(ctx, "ws1", m.ID)
	require.NoError(t, err)
	day, ok := got.Schedule.Day("Monday")
	assert.True(t, ok)
	assert.False(t, day.Enabled)

	p := &model.Product{WorkspaceID: "ws1", Name: "Shampoo", Price: 29900, Stock: 3, Active: true}
	require.NoError(t, db.SaveProduct(ctx, p))
	products, err := db.ListProducts(ctx, "ws1")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 3, products[0].Stock)

	require.NoError(t, db.DeleteMember(ctx, "ws1", m.ID))
	require.NoError(t, db.DeleteProduct(ctx, "ws1", p.ID))
	members, err := db.ListMembers(ctx, "ws1")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestAppointmentsRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	loc := time.FixedZone("IST", 5*3600+1800)

	start := time.Date(2026, 1, 13, 10, 0, 0, 0, loc)
	a := &model.Appointment{
		WorkspaceID:   "ws1",
		ServiceID:     "svc",
		CustomerName:  "Ravi",
		CustomerPhone: "999",
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
	}
	require.NoError(t, db.CreateAppointment(ctx, a))
	assert.Equal(t, model.AppointmentScheduled, a.Status)

	list, err := db.ListAppointments(ctx, "ws1", start.Add(-time.Hour), start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].StartTime.Equal(start))

	list, err = db.ListAppointments(ctx, "ws1", start.Add(time.Minute), start.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, db.UpdateAppointmentStatus(ctx, "ws1", a.ID, model.AppointmentCancelled))
	got, err := db.GetAppointment(ctx, "ws1", a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive())
	assert.ErrorIs(t, db.UpdateAppointmentStatus(ctx, "ws1", "missing", model.AppointmentCancelled), ErrNotFound)
}

func TestCapacityReserveRelease(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	slot := &slots.CapacitySlot{WorkspaceID: "ws1", Date: "2026-01-13", StartTime: "10:00", EndTime: "11:00",
		MaxBookings: 2, Active: true}
	require.NoError(t, db.SaveCapacitySlot(ctx, slot))

	require.NoError(t, db.ReserveCapacity(ctx, "ws1", slot.ID))
	require.NoError(t, db.ReserveCapacity(ctx, "ws1", slot.ID))
	assert.ErrorIs(t, db.ReserveCapacity(ctx, "ws1", slot.ID), ErrCapacityFull)
	assert.ErrorIs(t, db.ReserveCapacity(ctx, "ws1", "missing"), ErrNotFound)

	require.NoError(t, db.ReleaseCapacity(ctx, "ws1", slot.ID))
	list, err := db.ListCapacitySlots(ctx, "ws1", "2026-01-13")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].CurrentBookings)

	require.NoError(t, db.ReleaseCapacity(ctx, "ws1", slot.ID))
	require.NoError(t, db.ReleaseCapacity(ctx, "ws1", slot.ID))
	list, err = db.ListCapacitySlots(ctx, "ws1", "2026-01-13")
	require.NoError(t, err)
	assert.Equal(t, 0, list[0].CurrentBookings)
}

func TestRecordSale(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &model.Product{WorkspaceID: "ws1", Name: "Serum", Price: 10000, Stock: 1, Active: true}
	require.NoError(t, db.SaveProduct(ctx, p))

	existing := &model.Customer{WorkspaceID: "ws1", Name: "Meera", Phone: "555", Visits: 1}
	require.NoError(t, db.SaveCustomer(ctx, existing))

	now := time.Now().UTC()
	tx := &model.Transaction{
		WorkspaceID:  "ws1",
		CustomerName: "Meera",
		Items:        []pricing.Item{{ID: p.ID, Name: "Serum", Kind: "product", Price: 10000, Quantity: 2}},
		Quote:        pricing.Quote{Subtotal: 20000, AfterDiscount: 20000, Tax: 3600, Total: 23600},
	}
	cust := &model.Customer{WorkspaceID: "ws1", Name: "Meera", Phone: "555", Visits: 2, TotalSpent: 23600, LastVisit: &now}
	require.NoError(t, db.RecordSale(ctx, tx, cust))
	assert.Equal(t, existing.ID, tx.CustomerID)

	got, err := db.GetProduct(ctx, "ws1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	c, err := db.GetCustomerByPhone(ctx, "ws1", "555")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Visits)
	assert.Equal(t, int64(23600), c.TotalSpent)
	require.NotNil(t, c.LastVisit)

	list, err := db.ListTransactions(ctx, "ws1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(23600), list[0].Total)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, 2, list[0].Items[0].Quantity)
}

func TestWorkflowCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := &model.Workflow{WorkspaceID: "ws1", Name: "Reminder", Trigger: "appointment_booked", Active: true,
		Actions: []model.WorkflowAction{{Type: "sms", Template: "Hi {{customer_name}}"}}}
	require.NoError(t, db.SaveWorkflow(ctx, w))

	got, err := db.GetWorkflow(ctx, "ws1", w.ID)
	require.NoError(t, err)
	assert.Equal(t, "appointment_booked", got.Trigger)
	require.Len(t, got.Actions, 1)

	list, err := db.ListWorkflows(ctx, "ws1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, db.DeleteWorkflow(ctx, "ws1", w.ID))
	_, err = db.GetWorkflow(ctx, "ws1", w.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncWorkspacesFromConfig(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.SyncWorkspacesFromConfig(ctx, nil)
	assert.Error(t, err)

	cfg := &config.WorkspacesConfig{Workspaces: []config.WorkspaceConfig{
		{ID: "a", Name: "A", Timezone: "UTC", SlotMinutes: 15},
		{ID: "b", Name: "B", Timezone: "UTC"},
	}}
	ids, err := db.SyncWorkspacesFromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	s, err := db.GetSettings(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 15, s.SlotMinutes)
}

func TestBackupAndCleanup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	logger := zerolog.Nop()

	svc := NewBackupService(db, BackupConfig{Enabled: true, StoragePath: dir, RetentionDays: 7}, &logger)
	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)
	assert.FileExists(t, path)

	old := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, old)
	assert.FileExists(t, path)
}
