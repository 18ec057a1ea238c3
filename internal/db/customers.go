package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
)

const customerColumns = `id, workspace_id, name, phone, email, total_spent, loyalty_points, visits, tier,
	last_visit, created_at, updated_at`

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var c model.Customer
	var lastVisit sql.NullTime
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Phone, &c.Email, &c.TotalSpent, &c.LoyaltyPoints,
		&c.Visits, &c.Tier, &lastVisit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastVisit.Valid {
		t := lastVisit.Time
		c.LastVisit = &t
	}
	return &c, nil
}

// GetCustomerByPhone looks a customer up by phone number.
func (db *DB) GetCustomerByPhone(ctx context.Context, workspaceID, phone string) (*model.Customer, error) {
	return getCustomerByPhone(ctx, db.DB, workspaceID, phone)
}

func getCustomerByPhone(ctx context.Context, q queryer, workspaceID, phone string) (*model.Customer, error) {
	c, err := scanCustomer(q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE workspace_id = ? AND phone = ?`, workspaceID, phone))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// ListCustomers returns customers ordered by lifetime spend.
func (db *DB) ListCustomers(ctx context.Context, workspaceID string) ([]model.Customer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE workspace_id = ? ORDER BY total_spent DESC, name`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SaveCustomer inserts or replaces a customer keyed by workspace and phone.
func (db *DB) SaveCustomer(ctx context.Context, c *model.Customer) error {
	return saveCustomer(ctx, db.DB, c)
}

func saveCustomer(ctx context.Context, q queryer, c *model.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	var lastVisit any
	if c.LastVisit != nil {
		lastVisit = c.LastVisit.UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO customers (id, workspace_id, name, phone, email, total_spent, loyalty_points, visits, tier,
		                       last_visit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, phone) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			total_spent = excluded.total_spent,
			loyalty_points = excluded.loyalty_points,
			visits = excluded.visits,
			tier = excluded.tier,
			last_visit = excluded.last_visit,
			updated_at = excluded.updated_at`,
		c.ID, c.WorkspaceID, c.Name, c.Phone, c.Email, c.TotalSpent, c.LoyaltyPoints, c.Visits, c.Tier,
		lastVisit, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save customer %s: %w", c.Phone, err)
	}
	return nil
}
