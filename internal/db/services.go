package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
	"zervos/internal/schedule"
)

const serviceColumns = `id, workspace_id, name, description, category, price, duration_minutes,
	is_active, availability, breaks, assigned_member_id, created_at, updated_at`

func (db *DB) scanService(row rowScanner) (*model.Service, error) {
	var s model.Service
	var availability, breaks sql.NullString
	if err := row.Scan(
		&s.ID, &s.WorkspaceID, &s.Name, &s.Description, &s.Category, &s.Price, &s.DurationMinutes,
		&s.Active, &availability, &breaks, &s.AssignedMemberID, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	db.decodeJSON(availability, &s.Availability, "services.availability")
	if breaks.Valid && breaks.String != "" && breaks.String != "null" {
		s.Breaks = schedule.DecodeBreaks([]byte(breaks.String))
	}
	return &s, nil
}

// GetService returns a service by ID within a workspace.
func (db *DB) GetService(ctx context.Context, workspaceID, id string) (*model.Service, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE workspace_id = ? AND id = ?`,
		workspaceID, id,
	)
	s, err := db.scanService(row)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// ListServices returns all services of a workspace ordered by name.
func (db *DB) ListServices(ctx context.Context, workspaceID string) ([]model.Service, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE workspace_id = ? ORDER BY name`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		s, err := db.scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SaveService inserts or updates a service. A missing ID is generated.
func (db *DB) SaveService(ctx context.Context, s *model.Service) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	var availability, breaks any
	if s.Availability != nil {
		v, err := encodeJSON(s.Availability)
		if err != nil {
			return fmt.Errorf("encode availability: %w", err)
		}
		availability = v
	}
	if s.Breaks != nil {
		v, err := encodeJSON(schedule.NormalizeBreaks(s.Breaks))
		if err != nil {
			return fmt.Errorf("encode breaks: %w", err)
		}
		breaks = v
	}

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO services (id, workspace_id, name, description, category, price, duration_minutes,
		                      is_active, availability, breaks, assigned_member_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			price = excluded.price,
			duration_minutes = excluded.duration_minutes,
			is_active = excluded.is_active,
			availability = excluded.availability,
			breaks = excluded.breaks,
			assigned_member_id = excluded.assigned_member_id,
			updated_at = excluded.updated_at
		WHERE services.workspace_id = excluded.workspace_id`,
		s.ID, s.WorkspaceID, s.Name, s.Description, s.Category, s.Price, s.DurationMinutes,
		s.Active, availability, breaks, s.AssignedMemberID, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save service %s: %w", s.ID, err)
	}
	return nil
}

// DeleteService removes a service.
func (db *DB) DeleteService(ctx context.Context, workspaceID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM services WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
