package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createSacredsTableSQL = `
CREATE TABLE IF NOT EXISTS sacreds (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE
);`

const createOfferingsTableSQL = `
CREATE TABLE IF NOT EXISTS offerings (
    id                 TEXT PRIMARY KEY,
    sacred_id          TEXT NOT NULL REFERENCES sacreds(id),
    code               TEXT NOT NULL DEFAULT '',
    name               TEXT NOT NULL,
    amount             NUMERIC(12,2) NOT NULL DEFAULT 0,
    status             TEXT NOT NULL DEFAULT 'active',
    rules              JSONB NOT NULL DEFAULT '[]',
    max_advance_days   INTEGER NOT NULL DEFAULT 0,
    min_cutoff_minutes INTEGER NOT NULL DEFAULT 0
);`

const createFestivalsTableSQL = `
CREATE TABLE IF NOT EXISTS festivals (
    position          BIGSERIAL,
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    start_date        TEXT NOT NULL,
    end_date          TEXT,
    offering_ids      TEXT[] NOT NULL DEFAULT '{}',
    blackout          BOOLEAN NOT NULL DEFAULT FALSE,
    schedule_override JSONB
);`

// Token uniqueness lives in the schema: the sequence per (sacred, offering, date)
// and the printed token number are both unique.
const createBookingsTableSQL = `
CREATE TABLE IF NOT EXISTS seva_bookings (
    id              UUID PRIMARY KEY,
    token_number    TEXT NOT NULL UNIQUE,
    sequence        INTEGER NOT NULL,
    sacred_id       TEXT NOT NULL,
    offering_id     TEXT NOT NULL,
    booking_date    TEXT NOT NULL,
    slot_start      TEXT NOT NULL,
    slot_end        TEXT NOT NULL,
    devotee         JSONB NOT NULL DEFAULT '{}',
    amount          NUMERIC(12,2) NOT NULL DEFAULT 0,
    payment_mode    TEXT NOT NULL,
    payment_status  TEXT NOT NULL,
    status          TEXT NOT NULL,
    booked_at       TIMESTAMPTZ NOT NULL,
    operator_id     TEXT NOT NULL DEFAULT '',
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (sacred_id, offering_id, booking_date, sequence)
);`

const createBookingsIndexSQL = `
CREATE INDEX IF NOT EXISTS seva_bookings_offering_date_idx ON seva_bookings (offering_id, booking_date);`

// Migrate creates the tables the ledger and catalog read from.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range []string{
		createSacredsTableSQL,
		createOfferingsTableSQL,
		createFestivalsTableSQL,
		createBookingsTableSQL,
		createBookingsIndexSQL,
	} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
