package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
)

const productColumns = `id, workspace_id, name, sku, category, price, stock, is_active, created_at, updated_at`

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.SKU, &p.Category, &p.Price, &p.Stock,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) GetProduct(ctx context.Context, workspaceID, id string) (*model.Product, error) {
	p, err := scanProduct(db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE workspace_id = ? AND id = ?`, workspaceID, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (db *DB) ListProducts(ctx context.Context, workspaceID string) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (db *DB) SaveProduct(ctx context.Context, p *model.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, workspace_id, name, sku, category, price, stock, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			sku = excluded.sku,
			category = excluded.category,
			price = excluded.price,
			stock = excluded.stock,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
		WHERE products.workspace_id = excluded.workspace_id`,
		p.ID, p.WorkspaceID, p.Name, p.SKU, p.Category, p.Price, p.Stock, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save product %s: %w", p.ID, err)
	}
	return nil
}

func (db *DB) DeleteProduct(ctx context.Context, workspaceID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM products WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
