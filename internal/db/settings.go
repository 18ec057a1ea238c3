package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zervos/internal/model"
	"zervos/internal/schedule"
)

// GetSettings returns stored settings for a workspace, or ErrNotFound.
func (db *DB) GetSettings(ctx context.Context, workspaceID string) (*model.Settings, error) {
	var s model.Settings
	var hours, breaks, special, unavailable sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT workspace_id, name, timezone, business_hours, breaks, special_hours, unavailable,
		       booking_window_days, min_notice_hours, slot_minutes, slot_management, updated_at
		FROM settings WHERE workspace_id = ?`,
		workspaceID,
	).Scan(
		&s.WorkspaceID, &s.Name, &s.Timezone, &hours, &breaks, &special, &unavailable,
		&s.BookingWindowDays, &s.MinNoticeHours, &s.SlotMinutes, &s.SlotManagement, &s.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	db.decodeJSON(hours, &s.BusinessHours, "settings.business_hours")
	s.Breaks = schedule.NormalizeBreaks(nil)
	if breaks.Valid {
		s.Breaks = schedule.DecodeBreaks([]byte(breaks.String))
	}
	db.decodeJSON(special, &s.SpecialHours, "settings.special_hours")
	db.decodeJSON(unavailable, &s.Unavailable, "settings.unavailable")
	return &s, nil
}

// SettingsOrDefault returns stored settings, falling back to defaults when none exist.
func (db *DB) SettingsOrDefault(ctx context.Context, workspaceID string) (*model.Settings, error) {
	s, err := db.GetSettings(ctx, workspaceID)
	if errors.Is(err, ErrNotFound) {
		return model.DefaultSettings(workspaceID), nil
	}
	return s, err
}

// SaveSettings upserts workspace settings.
func (db *DB) SaveSettings(ctx context.Context, s *model.Settings) error {
	hours, err := encodeJSON(s.BusinessHours)
	if err != nil {
		return fmt.Errorf("encode business hours: %w", err)
	}
	breaks, err := encodeJSON(schedule.NormalizeBreaks(s.Breaks))
	if err != nil {
		return fmt.Errorf("encode breaks: %w", err)
	}
	special, err := encodeJSON(s.SpecialHours)
	if err != nil {
		return fmt.Errorf("encode special hours: %w", err)
	}
	unavailable, err := encodeJSON(s.Unavailable)
	if err != nil {
		return fmt.Errorf("encode unavailable: %w", err)
	}

	s.UpdatedAt = time.Now().UTC()
	_, err = db.ExecContext(ctx, `
		INSERT INTO settings (workspace_id, name, timezone, business_hours, breaks, special_hours, unavailable,
		                      booking_window_days, min_notice_hours, slot_minutes, slot_management, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			business_hours = excluded.business_hours,
			breaks = excluded.breaks,
			special_hours = excluded.special_hours,
			unavailable = excluded.unavailable,
			booking_window_days = excluded.booking_window_days,
			min_notice_hours = excluded.min_notice_hours,
			slot_minutes = excluded.slot_minutes,
			slot_management = excluded.slot_management,
			updated_at = excluded.updated_at`,
		s.WorkspaceID, s.Name, s.Timezone, hours, breaks, special, unavailable,
		s.BookingWindowDays, s.MinNoticeHours, s.SlotMinutes, s.SlotManagement, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings %s: %w", s.WorkspaceID, err)
	}
	return nil
}

// ListWorkspaceIDs returns every workspace with stored settings.
func (db *DB) ListWorkspaceIDs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT workspace_id FROM settings ORDER BY workspace_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
