package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"zervos/internal/slots"
)

// ListCapacitySlots returns capacity slot definitions for one date.
func (db *DB) ListCapacitySlots(ctx context.Context, workspaceID, date string) ([]slots.CapacitySlot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, workspace_id, date, start_time, end_time, max_bookings, current_bookings, is_active
		FROM time_slots WHERE workspace_id = ? AND date = ?
		ORDER BY start_time`,
		workspaceID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []slots.CapacitySlot
	for rows.Next() {
		var c slots.CapacitySlot
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Date, &c.StartTime, &c.EndTime,
			&c.MaxBookings, &c.CurrentBookings, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCapacitySlot inserts or updates a capacity slot definition.
func (db *DB) SaveCapacitySlot(ctx context.Context, c *slots.CapacitySlot) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO time_slots (id, workspace_id, date, start_time, end_time, max_bookings, current_bookings, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			max_bookings = excluded.max_bookings,
			current_bookings = excluded.current_bookings,
			is_active = excluded.is_active`,
		c.ID, c.WorkspaceID, c.Date, c.StartTime, c.EndTime, c.MaxBookings, c.CurrentBookings, c.Active,
	)
	if err != nil {
		return fmt.Errorf("save time slot %s: %w", c.ID, err)
	}
	return nil
}

// ReserveCapacity increments the booking count of an active slot with room left.
// It returns ErrNotFound for an unknown slot and ErrCapacityFull when the slot is full.
func (db *DB) ReserveCapacity(ctx context.Context, workspaceID, slotID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE time_slots SET current_bookings = current_bookings + 1
		WHERE workspace_id = ? AND id = ? AND is_active = 1 AND current_bookings < max_bookings`,
		workspaceID, slotID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM time_slots WHERE workspace_id = ? AND id = ? AND is_active = 1`,
		workspaceID, slotID,
	).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrCapacityFull
}

// ReleaseCapacity decrements the booking count, never below zero.
func (db *DB) ReleaseCapacity(ctx context.Context, workspaceID, slotID string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE time_slots SET current_bookings = current_bookings - 1
		WHERE workspace_id = ? AND id = ? AND current_bookings > 0`,
		workspaceID, slotID,
	)
	return err
}
