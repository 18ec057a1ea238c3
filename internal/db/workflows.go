package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
)

const workflowColumns = `id, workspace_id, name, description, trigger_event, actions, is_active, created_at, updated_at`

func (db *DB) scanWorkflow(row rowScanner) (*model.Workflow, error) {
	var w model.Workflow
	var actions sql.NullString
	err := row.Scan(&w.ID, &w.WorkspaceID, &w.Name, &w.Description, &w.Trigger, &actions,
		&w.Active, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	db.decodeJSON(actions, &w.Actions, "workflows.actions")
	return &w, nil
}

func (db *DB) GetWorkflow(ctx context.Context, workspaceID, id string) (*model.Workflow, error) {
	w, err := db.scanWorkflow(db.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE workspace_id = ? AND id = ?`, workspaceID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (db *DB) ListWorkflows(ctx context.Context, workspaceID string) ([]model.Workflow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE workspace_id = ? ORDER BY created_at, name`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Workflow
	for rows.Next() {
		w, err := db.scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (db *DB) SaveWorkflow(ctx context.Context, w *model.Workflow) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	actions, err := encodeJSON(w.Actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	_, err = db.ExecContext(ctx, `
		INSERT INTO workflows (`+workflowColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			trigger_event = excluded.trigger_event,
			actions = excluded.actions,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
		WHERE workflows.workspace_id = excluded.workspace_id`,
		w.ID, w.WorkspaceID, w.Name, w.Description, w.Trigger, actions, w.Active, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save workflow %s: %w", w.ID, err)
	}
	return nil
}

func (db *DB) DeleteWorkflow(ctx context.Context, workspaceID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM workflows WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
