package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rifa/internal/draw/models"
	"rifa/pkg/domain"
	"rifa/pkg/platform/sentinel"
	"rifa/pkg/platform/tx"
)

// Postgres persists the draw outcome. The table carries a single-row unique
// guard, so a second insert fails no matter how the callers race.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) q(ctx context.Context) querier {
	if dbtx, ok := tx.From(ctx); ok {
		return dbtx
	}
	return s.db
}

func (s *Postgres) Insert(ctx context.Context, o *models.DrawOutcome) error {
	query := `
		INSERT INTO draw_outcomes (id, participant_id, ticket_number, full_name, contact, drawn_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(o.ID), uuid.UUID(o.ParticipantID), o.TicketNumber, o.FullName, o.Contact.String(), o.DrawnAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert draw outcome: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context) (*models.DrawOutcome, error) {
	query := `
		SELECT id, participant_id, ticket_number, full_name, contact, drawn_at
		FROM draw_outcomes
		LIMIT 1
	`
	var (
		o             models.DrawOutcome
		id            uuid.UUID
		participantID uuid.UUID
		contact       string
	)
	err := s.q(ctx).QueryRowContext(ctx, query).Scan(&id, &participantID, &o.TicketNumber, &o.FullName, &contact, &o.DrawnAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get draw outcome: %w", err)
	}
	o.ID = domain.OutcomeID(id)
	o.ParticipantID = domain.ParticipantID(participantID)
	o.Contact = domain.Contact(contact)
	return &o, nil
}

func (s *Postgres) Delete(ctx context.Context) error {
	if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM draw_outcomes`); err != nil {
		return fmt.Errorf("delete draw outcome: %w", err)
	}
	return nil
}
