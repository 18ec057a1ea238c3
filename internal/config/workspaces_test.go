package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorkspaces = `
workspaces:
  - id: downtown
    name: Downtown Studio
    timezone: Asia/Kolkata
    booking_window_days: 30
    min_notice_hours: 2
    business_hours:
      Monday: {enabled: true, start: "10:00", end: "19:00"}
    breaks:
      Monday:
        - {start_time: "13:00", end_time: "14:00"}
  - id: uptown
    name: Uptown
defaults:
  slot_minutes: 15
  days_off: [Sunday]
  business_hours:
    Monday: {enabled: true, start: "09:00", end: "17:00"}
    Sunday: {enabled: true, start: "09:00", end: "13:00"}
holidays:
  - date: "2026-01-26"
    name: Republic Day
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspaces.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWorkspacesConfig(t *testing.T) {
	cfg, err := LoadWorkspacesConfig(writeFile(t, sampleWorkspaces))
	require.NoError(t, err)
	require.Len(t, cfg.Workspaces, 2)

	down := cfg.GetWorkspace("downtown")
	require.NotNil(t, down)
	assert.Equal(t, "10:00", down.BusinessHours["Monday"].Start)
	assert.Equal(t, 15, down.SlotMinutes)
	assert.Len(t, down.Breaks, 7)
	assert.Len(t, down.Breaks["Monday"], 1)
	assert.Equal(t, "2026-01-26", down.Unavailable[0].StartDate)

	up := cfg.GetWorkspace("uptown")
	require.NotNil(t, up)
	assert.Equal(t, "UTC", up.Timezone)
	assert.Equal(t, "09:00", up.BusinessHours["Monday"].Start)
	assert.False(t, up.BusinessHours["Sunday"].Enabled)

	assert.Nil(t, cfg.GetWorkspace("missing"))
}

func TestWorkspaceSettings(t *testing.T) {
	cfg, err := LoadWorkspacesConfig(writeFile(t, sampleWorkspaces))
	require.NoError(t, err)

	s := cfg.GetWorkspace("downtown").Settings()
	assert.Equal(t, "downtown", s.WorkspaceID)
	assert.Equal(t, "Downtown Studio", s.Name)
	assert.Equal(t, 30, s.BookingWindowDays)
	assert.Equal(t, 2, s.MinNoticeHours)
	assert.Equal(t, 15, s.SlotMinutes)
	assert.Equal(t, "Asia/Kolkata", s.Location().String())
}

func TestWorkspacesValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "workspaces: []", "no workspaces defined"},
		{"missing id", "workspaces:\n  - name: x", "id is required"},
		{"duplicate", "workspaces:\n  - id: a\n  - id: a", "duplicate id"},
		{"bad weekday", "workspaces:\n  - id: a\n    business_hours:\n      Funday: {enabled: true, start: \"09:00\", end: \"10:00\"}", "invalid weekday"},
		{"end before start", "workspaces:\n  - id: a\n    business_hours:\n      Monday: {enabled: true, start: \"18:00\", end: \"09:00\"}", "end must be after start"},
		{"bad holiday", "workspaces:\n  - id: a\nholidays:\n  - date: 26-01-2026", "invalid date"},
		{"bad timezone", "workspaces:\n  - id: a\n    timezone: Mars/Olympus", "unknown timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWorkspacesConfig(writeFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWorkspaceWatcherAppliesOnContentChange(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, sampleWorkspaces)

	var applied []*WorkspacesConfig
	w := NewWorkspaceWatcher(path, time.Hour, func(_ context.Context, c *WorkspacesConfig) error {
		applied = append(applied, c)
		return nil
	}, nil)

	changed, err := w.Check(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, applied, 1)
	assert.Len(t, applied[0].Workspaces, 2)

	// Rewriting identical content is not a change.
	require.NoError(t, os.WriteFile(path, []byte(sampleWorkspaces), 0o600))
	changed, err = w.Check(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, applied, 1)

	edited := strings.Replace(sampleWorkspaces, "name: Uptown", "name: Uptown Spa", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o600))
	changed, err = w.Check(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, applied, 2)
	assert.Equal(t, "Uptown Spa", applied[1].Workspaces[1].Name)
}

func TestWorkspaceWatcherRetriesFailedApply(t *testing.T) {
	ctx := context.Background()
	calls := 0
	w := NewWorkspaceWatcher(writeFile(t, sampleWorkspaces), time.Hour, func(context.Context, *WorkspacesConfig) error {
		calls++
		if calls == 1 {
			return errors.New("database locked")
		}
		return nil
	}, nil)

	_, err := w.Check(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database locked")

	changed, err := w.Check(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, calls)
}

func TestWorkspaceWatcherStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := NewWorkspaceWatcher(writeFile(t, "workspaces: [{id: \"\"}]"), time.Hour, nil, nil).Start(ctx)
	require.Error(t, err)

	err = NewWorkspaceWatcher(filepath.Join(t.TempDir(), "missing.yaml"), time.Hour, nil, nil).Start(ctx)
	require.Error(t, err)

	applied := false
	err = NewWorkspaceWatcher(writeFile(t, sampleWorkspaces), time.Hour, func(context.Context, *WorkspacesConfig) error {
		applied = true
		return nil
	}, nil).Start(ctx)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZERVOS_TEST_DB", filepath.Join(dir, "db", "z.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: ${ZERVOS_TEST_DB}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "db", "z.db"), cfg.Database.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 90, cfg.Booking.MaxRangeDays)
	assert.Equal(t, int64(18), cfg.POS.TaxPercent)
	assert.Len(t, cfg.POS.LoyaltyTiers, 4)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout())
	assert.DirExists(t, filepath.Join(dir, "db"))
}
