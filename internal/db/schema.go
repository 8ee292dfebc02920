package db

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS branches (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	street_address TEXT NOT NULL,
	city TEXT NOT NULL,
	region_code TEXT NOT NULL,
	postal_code TEXT NOT NULL,
	phone TEXT NOT NULL,
	hours TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- which branches serve a customer postal code, nearest first
CREATE TABLE IF NOT EXISTS branch_coverage (
	postal_code TEXT NOT NULL,
	branch_id TEXT NOT NULL REFERENCES branches(id) ON DELETE CASCADE,
	rank INT NOT NULL,
	distance_label TEXT NOT NULL,
	PRIMARY KEY (postal_code, branch_id)
);

CREATE TABLE IF NOT EXISTS bookings (
	confirmation_id TEXT PRIMARY KEY,
	appointment_type TEXT NOT NULL,
	branch_id TEXT NOT NULL,
	slot_date DATE NOT NULL,
	slot_time TEXT NOT NULL,
	contact_name TEXT NOT NULL,
	contact_email TEXT NOT NULL,
	contact_phone TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (branch_id, slot_date, slot_time)
);

CREATE TABLE IF NOT EXISTS event_logs (
	id BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	confirmation_id TEXT,
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_branch_coverage_rank ON branch_coverage(postal_code, rank);
`

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
