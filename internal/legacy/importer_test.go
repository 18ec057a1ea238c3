package legacy

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zervos/internal/db"
	"zervos/internal/events"
	"zervos/internal/model"
	"zervos/internal/pricing"
)

const sampleDump = `{
	"zervos_services_ws1": "[{\"id\":\"s1\",\"name\":\"Haircut\",\"price\":\"499.50\",\"duration\":45,\"isEnabled\":true},{\"name\":\"\"}]",
	"zervos_team_members::ws1": [{"id": "m1", "firstName": "Asha", "lastName": "Rao", "isActive": false}],
	"zervos_products_old": "{not json",
	"zervos_business_hours": "{\"Monday\":{\"isOpen\":true,\"open\":\"09:00\",\"close\":\"17:00\"},\"Sunday\":{\"enabled\":false}}",
	"zervos_appointments": "[{\"id\":\"a1\",\"serviceId\":\"s1\",\"date\":\"2026-01-13\",\"time\":\"10:30 AM\",\"duration\":45,\"status\":\"canceled\",\"customerName\":\"Ravi\"},{\"id\":\"a2\",\"workspaceId\":\"other\",\"date\":\"2026-01-13\",\"time\":\"11:00\"}]",
	"pos_transactions": "[{\"id\":\"t1\",\"items\":[{\"id\":\"p1\",\"name\":\"Gel\",\"price\":25000,\"quantity\":2,\"type\":\"product\"}],\"customerName\":\"Ravi\",\"customerPhone\":\"999\",\"createdAt\":\"2026-01-13T10:00:00Z\"}]",
	"customers_ws1": "[{\"name\":\"Ravi\",\"phone\":\"999\",\"totalSpent\":1000,\"tier\":\"Silver\"}]",
	"zervos_workflows_ws1": "[{\"id\":\"w1\",\"name\":\"Reminder\",\"trigger\":\"appointmentReminder\",\"actions\":[{\"type\":\"SMS\",\"message\":\"Hi {{customer_name}}\"}]}]",
	"zervos_timeslots": "[{\"id\":\"ts1\",\"date\":\"2026-01-14\",\"startTime\":\"10:00\",\"endTime\":\"11:00\",\"maxBookings\":3}]",
	"unrelated": "42"
}`

type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) handle(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, e.Type)
	return nil
}

func newImporter(t *testing.T) (*Importer, *db.DB, *recorder) {
	t.Helper()
	logger := zerolog.Nop()
	store, err := db.NewDB(filepath.Join(t.TempDir(), "import.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := events.NewBus(&logger)
	rec := &recorder{}
	bus.SubscribeAll(rec.handle)
	return NewImporter(store, pricing.NewCalculator(18), bus, &logger), store, rec
}

func parse(t *testing.T, s string) Dump {
	t.Helper()
	d, err := ParseDump(strings.NewReader(s))
	require.NoError(t, err)
	return d
}

func TestImport(t *testing.T) {
	im, store, rec := newImporter(t)
	ctx := context.Background()

	res, err := im.Import(ctx, "ws1", parse(t, sampleDump))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"settings":     1,
		"services":     1,
		"team_members": 1,
		"customers":    1,
		"workflows":    1,
		"time_slots":   1,
		"appointments": 1,
		"transactions": 1,
	}, res.Imported)
	assert.Equal(t, 1, res.Skipped["services"])
	assert.Equal(t, 1, res.Skipped["appointments"])
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "zervos_products_old")

	settings, err := store.GetSettings(ctx, "ws1")
	require.NoError(t, err)
	mon, _ := settings.BusinessHours.Day("Monday")
	assert.True(t, mon.Enabled)
	assert.Equal(t, "09:00", mon.Start)

	svc, err := store.GetService(ctx, "ws1", "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(49950), svc.Price)
	assert.True(t, svc.Active)

	member, err := store.GetMember(ctx, "ws1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", member.Name)
	assert.False(t, member.Active)

	appt, err := store.GetAppointment(ctx, "ws1", "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, appt.Status)
	assert.Equal(t, time.Date(2026, 1, 13, 10, 30, 0, 0, time.UTC), appt.StartTime.UTC())

	txs, err := store.ListTransactions(ctx, "ws1",
		time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(59000), txs[0].Total)

	customer, err := store.GetCustomerByPhone(ctx, "ws1", "999")
	require.NoError(t, err)
	assert.Equal(t, "silver", customer.Tier)

	wf, err := store.GetWorkflow(ctx, "ws1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "appointment_reminder", wf.Trigger)
	assert.Equal(t, "sms", wf.Actions[0].Type)

	capSlots, err := store.ListCapacitySlots(ctx, "ws1", "2026-01-14")
	require.NoError(t, err)
	require.Len(t, capSlots, 1)
	assert.Equal(t, 3, capSlots[0].MaxBookings)

	assert.ElementsMatch(t, []string{
		events.SettingsUpdated,
		events.ServicesUpdated,
		events.TeamMembersUpdated,
		events.WorkflowsUpdated,
		events.TimeslotsUpdated,
		events.AppointmentsUpdated,
		events.BookingsUpdated,
	}, rec.topics)
}

func TestImport_RepeatSkipsExistingHistory(t *testing.T) {
	im, _, _ := newImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, "ws1", parse(t, sampleDump))
	require.NoError(t, err)

	res, err := im.Import(ctx, "ws1", parse(t, sampleDump))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported["services"])
	assert.Zero(t, res.Imported["appointments"])
	assert.Equal(t, 2, res.Skipped["appointments"])
	assert.Zero(t, res.Imported["transactions"])
	assert.Equal(t, 1, res.Skipped["transactions"])
}

func TestImport_PrefixFallbackPrefersWorkspace(t *testing.T) {
	im, store, _ := newImporter(t)
	ctx := context.Background()

	d := parse(t, `{
		"zervos_products_aaa": "[{\"id\":\"p0\",\"name\":\"Other\"}]",
		"zervos_products_v2_ws1": "[{\"id\":\"p1\",\"name\":\"Shampoo\",\"price\":35000,\"stock\":\"7\",\"isActive\":true}]"
	}`)
	res, err := im.Import(ctx, "ws1", d)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported["products"])

	p, err := store.GetProduct(ctx, "ws1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	_, err = store.GetProduct(ctx, "ws1", "p0")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestImport_InvalidSettingsAreSkipped(t *testing.T) {
	im, store, _ := newImporter(t)
	ctx := context.Background()

	res, err := im.Import(ctx, "ws1", parse(t, `{"zervos_business_hours": {"Monday": {"enabled": true, "start": "18:00", "end": "09:00"}}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped["settings"])
	assert.Len(t, res.Warnings, 1)

	_, err = store.GetSettings(ctx, "ws1")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestImport_Validation(t *testing.T) {
	im, _, _ := newImporter(t)
	_, err := im.Import(context.Background(), "", Dump{})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = ParseDump(strings.NewReader(`[1, 2]`))
	assert.ErrorIs(t, err, model.ErrValidation)
}
