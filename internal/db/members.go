package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
)

const memberColumns = `id, workspace_id, name, email, phone, role, schedule, is_active, created_at, updated_at`

func (db *DB) scanMember(row rowScanner) (*model.TeamMember, error) {
	var m model.TeamMember
	var sched sql.NullString
	err := row.Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Email, &m.Phone, &m.Role, &sched,
		&m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	db.decodeJSON(sched, &m.Schedule, "team_members.schedule")
	return &m, nil
}

// GetMember returns a team member by ID within a workspace.
func (db *DB) GetMember(ctx context.Context, workspaceID, id string) (*model.TeamMember, error) {
	m, err := db.scanMember(db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE workspace_id = ? AND id = ?`, workspaceID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// ListMembers returns the team of a workspace ordered by name.
func (db *DB) ListMembers(ctx context.Context, workspaceID string) ([]model.TeamMember, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeamMember
	for rows.Next() {
		m, err := db.scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// SaveMember inserts or updates a team member.
func (db *DB) SaveMember(ctx context.Context, m *model.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	var sched any
	if m.Schedule != nil {
		v, err := encodeJSON(m.Schedule)
		if err != nil {
			return fmt.Errorf("encode schedule: %w", err)
		}
		sched = v
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO team_members (id, workspace_id, name, email, phone, role, schedule, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			role = excluded.role,
			schedule = excluded.schedule,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
		WHERE team_members.workspace_id = excluded.workspace_id`,
		m.ID, m.WorkspaceID, m.Name, m.Email, m.Phone, m.Role, sched, m.Active, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save member %s: %w", m.ID, err)
	}
	return nil
}

// DeleteMember removes a team member.
func (db *DB) DeleteMember(ctx context.Context, workspaceID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM team_members WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
