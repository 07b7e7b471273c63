// Package database opens the PostgreSQL connection and applies the schema on
// startup. The unique indexes here are the last line of defence for the
// raffle invariants; services enforce them first inside transactions.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS participants (
	id UUID PRIMARY KEY,
	full_name TEXT NOT NULL,
	contact TEXT NOT NULL,
	ticket_number INT NOT NULL,
	origin TEXT NOT NULL,
	registered_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT participants_ticket_number_key UNIQUE (ticket_number)
);

CREATE INDEX IF NOT EXISTS idx_participants_contact ON participants (contact);

-- One direct registration per contact; extras rows are exempt.
CREATE UNIQUE INDEX IF NOT EXISTS uk_participants_contact_direct
	ON participants (contact) WHERE origin = 'direct';

CREATE TABLE IF NOT EXISTS extra_requests (
	id UUID PRIMARY KEY,
	requester_name TEXT NOT NULL,
	contact TEXT NOT NULL,
	amount INT NOT NULL,
	ticket_count INT NOT NULL,
	proof_ref TEXT NOT NULL,
	status TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	chosen_numbers INT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extra_requests_contact ON extra_requests (contact);
CREATE INDEX IF NOT EXISTS idx_extra_requests_status ON extra_requests (status);

CREATE TABLE IF NOT EXISTS draw_outcomes (
	id UUID PRIMARY KEY,
	-- Single-row guard: every row writes TRUE here, so the unique
	-- constraint admits at most one outcome per cycle.
	only_row BOOLEAN NOT NULL DEFAULT TRUE,
	participant_id UUID NOT NULL,
	ticket_number INT NOT NULL,
	full_name TEXT NOT NULL,
	contact TEXT NOT NULL,
	drawn_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT draw_outcomes_single UNIQUE (only_row)
);
`

// Open connects to PostgreSQL and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema applies the raffle schema idempotently.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
