package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS bills (
	bill_key           TEXT PRIMARY KEY,
	title              TEXT NOT NULL DEFAULT '',
	primary_bill_id    TEXT NOT NULL DEFAULT '',
	companion_bill_id  TEXT NOT NULL DEFAULT '',
	conference_bill_id TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL,
	status             JSONB,
	checksum           TEXT NOT NULL,
	last_updated       TIMESTAMPTZ,
	fetched_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bill_snapshots (
	id            SERIAL PRIMARY KEY,
	bill_key      TEXT NOT NULL,
	run_id        UUID NOT NULL,
	state         TEXT NOT NULL,
	status        JSONB,
	checksum      TEXT NOT NULL,
	last_updated  TIMESTAMPTZ,
	snapshot_date DATE NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (bill_key, snapshot_date)
);

CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	short_title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS category_bills (
	category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	bill_key    TEXT NOT NULL,
	PRIMARY KEY (category_id, bill_key)
);

CREATE TABLE IF NOT EXISTS metrics (
	id            SERIAL PRIMARY KEY,
	metric_name   TEXT NOT NULL,
	metric_value  TEXT NOT NULL,
	calculated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_metrics_name_time ON metrics (metric_name, calculated_at DESC);
`

// NewDB opens and pings a Postgres connection pool
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates any missing tables
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
