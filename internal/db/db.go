// Package db stores workspace data in SQLite.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrCapacityFull = errors.New("slot capacity reached")
)

// DB wraps sql.DB with typed repositories.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	dsn := path
	if !strings.HasPrefix(path, ":memory:") && !strings.Contains(path, "?") {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)

	if err := createTables(conn); err != nil {
		conn.Close()
		return nil, err
	}

	l := logger.With().Str("component", "db").Logger()
	return &DB{DB: conn, logger: &l}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			workspace_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL DEFAULT 'UTC',
			business_hours TEXT,
			breaks TEXT,
			special_hours TEXT,
			unavailable TEXT,
			booking_window_days INTEGER NOT NULL DEFAULT 0,
			min_notice_hours INTEGER NOT NULL DEFAULT 0,
			slot_minutes INTEGER NOT NULL DEFAULT 30,
			slot_management BOOLEAN NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS services (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL DEFAULT 0,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			availability TEXT,
			breaks TEXT,
			assigned_member_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name TEXT NOT NULL,
			sku TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS team_members (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			schedule TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			total_spent INTEGER NOT NULL DEFAULT 0,
			loyalty_points INTEGER NOT NULL DEFAULT 0,
			visits INTEGER NOT NULL DEFAULT 0,
			tier TEXT NOT NULL DEFAULT '',
			last_visit DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (workspace_id, phone)
		)`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			service_id TEXT NOT NULL,
			service_name TEXT NOT NULL DEFAULT '',
			member_id TEXT NOT NULL DEFAULT '',
			slot_id TEXT NOT NULL DEFAULT '',
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL,
			customer_email TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL DEFAULT 0,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			source TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS time_slots (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			max_bookings INTEGER NOT NULL DEFAULT 1,
			current_bookings INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			register_id TEXT NOT NULL DEFAULT '',
			customer_id TEXT NOT NULL DEFAULT '',
			customer_name TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			staff_name TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			items TEXT NOT NULL,
			discount_type TEXT NOT NULL DEFAULT '',
			discount_value TEXT NOT NULL DEFAULT '',
			subtotal INTEGER NOT NULL,
			discount INTEGER NOT NULL,
			after_discount INTEGER NOT NULL,
			tax INTEGER NOT NULL,
			total INTEGER NOT NULL,
			points_earned INTEGER NOT NULL DEFAULT 0,
			tier TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			trigger_event TEXT NOT NULL,
			actions TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_services_workspace ON services(workspace_id)`,
		`CREATE INDEX IF NOT EXISTS idx_products_workspace ON products(workspace_id)`,
		`CREATE INDEX IF NOT EXISTS idx_team_members_workspace ON team_members(workspace_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_times ON appointments(workspace_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_time_slots_date ON time_slots(workspace_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(workspace_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_workflows_workspace ON workflows(workspace_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// Ping verifies the connection for readiness checks.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeJSON fills v from a stored column. Corrupt data is logged and v is left as is.
func (db *DB) decodeJSON(raw sql.NullString, v any, column string) {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return
	}
	if err := json.Unmarshal([]byte(raw.String), v); err != nil {
		db.logger.Warn().Err(err).Str("column", column).Msg("corrupt stored value, using default")
	}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
