package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const transactionColumns = `id, workspace_id, register_id, customer_id, customer_name, customer_phone,
	staff_name, payment_method, items, discount_type, discount_value, subtotal, discount, after_discount,
	tax, total, points_earned, tier, created_at`

func (db *DB) scanTransaction(row rowScanner) (*model.Transaction, error) {
	var t model.Transaction
	var items sql.NullString
	err := row.Scan(&t.ID, &t.WorkspaceID, &t.RegisterID, &t.CustomerID, &t.CustomerName, &t.CustomerPhone,
		&t.StaffName, &t.PaymentMethod, &items, &t.DiscountType, &t.DiscountValue,
		&t.Subtotal, &t.Discount, &t.AfterDiscount, &t.Tax, &t.Total, &t.PointsEarned, &t.Tier, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	db.decodeJSON(items, &t.Items, "transactions.items")
	return &t, nil
}

func insertTransaction(ctx context.Context, q queryer, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	items, err := encodeJSON(t.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.WorkspaceID, t.RegisterID, t.CustomerID, t.CustomerName, t.CustomerPhone,
		t.StaffName, t.PaymentMethod, items, t.DiscountType, t.DiscountValue,
		t.Subtotal, t.Discount, t.AfterDiscount, t.Tax, t.Total, t.PointsEarned, t.Tier, t.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateTransaction stores a transaction on its own.
func (db *DB) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	return insertTransaction(ctx, db.DB, t)
}

// RecordSale stores a transaction, the updated customer and product stock changes atomically.
func (db *DB) RecordSale(ctx context.Context, t *model.Transaction, c *model.Customer) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if c != nil {
		if err := saveCustomer(ctx, tx, c); err != nil {
			return err
		}
		// Re-read so the transaction references the persisted row on phone conflicts.
		stored, err := getCustomerByPhone(ctx, tx, c.WorkspaceID, c.Phone)
		if err != nil {
			return fmt.Errorf("reload customer: %w", err)
		}
		t.CustomerID = stored.ID
	}

	if err := insertTransaction(ctx, tx, t); err != nil {
		return err
	}

	for _, it := range t.Items {
		if it.Kind != "product" || it.ID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = MAX(stock - ?, 0), updated_at = ? WHERE workspace_id = ? AND id = ?`,
			it.Quantity, time.Now().UTC(), t.WorkspaceID, it.ID,
		); err != nil {
			return fmt.Errorf("update stock %s: %w", it.ID, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns transactions created in [from, to), oldest first.
func (db *DB) ListTransactions(ctx context.Context, workspaceID string, from, to time.Time) ([]model.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE workspace_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at`,
		workspaceID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		t, err := db.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
