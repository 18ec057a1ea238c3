package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
)

const appointmentColumns = `id, workspace_id, service_id, service_name, member_id, slot_id, customer_name,
	customer_phone, customer_email, notes, price, start_time, end_time, status, source, created_at, updated_at`

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.ServiceID, &a.ServiceName, &a.MemberID, &a.SlotID,
		&a.CustomerName, &a.CustomerPhone, &a.CustomerEmail, &a.Notes, &a.Price,
		&a.StartTime, &a.EndTime, &a.Status, &a.Source, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAppointment stores a new appointment. Times are stored in UTC.
func (db *DB) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.AppointmentScheduled
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.WorkspaceID, a.ServiceID, a.ServiceName, a.MemberID, a.SlotID, a.CustomerName,
		a.CustomerPhone, a.CustomerEmail, a.Notes, a.Price, a.StartTime.UTC(), a.EndTime.UTC(),
		a.Status, a.Source, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// GetAppointment returns an appointment by ID.
func (db *DB) GetAppointment(ctx context.Context, workspaceID, id string) (*model.Appointment, error) {
	a, err := scanAppointment(db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE workspace_id = ? AND id = ?`, workspaceID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// UpdateAppointmentStatus changes the lifecycle state of an appointment.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, workspaceID, id string, status model.AppointmentStatus) error {
	res, err := db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, updated_at = ? WHERE workspace_id = ? AND id = ?`,
		status, time.Now().UTC(), workspaceID, id,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// ListAppointments returns appointments starting in [from, to), ordered by start.
func (db *DB) ListAppointments(ctx context.Context, workspaceID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE workspace_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		workspaceID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
