package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rifa/internal/registry/models"
	"rifa/pkg/domain"
	"rifa/pkg/platform/sentinel"
	"rifa/pkg/platform/tx"
)

// Postgres persists participants in PostgreSQL. This store is pure I/O - the
// check-then-act sequences belong to the service, which runs them inside a
// tx.Runner transaction that this store joins via context.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) q(ctx context.Context) querier {
	if dbtx, ok := tx.From(ctx); ok {
		return dbtx
	}
	return s.db
}

func (s *Postgres) Insert(ctx context.Context, p *models.Participant) error {
	if p == nil || p.ID.IsZero() {
		return errParticipantID
	}
	query := `
		INSERT INTO participants (id, full_name, contact, ticket_number, origin, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID), p.FullName, p.Contact.String(), p.Number, string(p.Origin), p.RegisteredAt,
	)
	if err != nil {
		// Unique indexes are the backstop when a concurrent commit slips
		// between the service's precondition check and this insert.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			switch pqErr.Constraint {
			case "participants_ticket_number_key":
				return ErrNumberTaken
			case "uk_participants_contact_direct":
				return ErrContactTaken
			}
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ParticipantID) (*models.Participant, error) {
	query := `
		SELECT id, full_name, contact, ticket_number, origin, registered_at
		FROM participants
		WHERE id = $1
	`
	p, err := scanParticipant(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find participant by id: %w", err)
	}
	return p, nil
}

func (s *Postgres) FindByNumber(ctx context.Context, number int) (*models.Participant, error) {
	query := `
		SELECT id, full_name, contact, ticket_number, origin, registered_at
		FROM participants
		WHERE ticket_number = $1
	`
	p, err := scanParticipant(s.q(ctx).QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find participant by number: %w", err)
	}
	return p, nil
}

func (s *Postgres) FindByContact(ctx context.Context, contact domain.Contact) ([]*models.Participant, error) {
	query := `
		SELECT id, full_name, contact, ticket_number, origin, registered_at
		FROM participants
		WHERE contact = $1
		ORDER BY ticket_number
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, contact.String())
	if err != nil {
		return nil, fmt.Errorf("find participants by contact: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

func (s *Postgres) Delete(ctx context.Context, id domain.ParticipantID) error {
	result, err := s.q(ctx).ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListAll(ctx context.Context) ([]*models.Participant, error) {
	query := `
		SELECT id, full_name, contact, ticket_number, origin, registered_at
		FROM participants
		ORDER BY ticket_number
	`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

func (s *Postgres) ClaimedNumbers(ctx context.Context) ([]int, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT ticket_number FROM participants ORDER BY ticket_number`)
	if err != nil {
		return nil, fmt.Errorf("claimed numbers: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan claimed number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (s *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM participants`); err != nil {
		return fmt.Errorf("delete all participants: %w", err)
	}
	return nil
}

type participantRow interface {
	Scan(dest ...any) error
}

func scanParticipant(row participantRow) (*models.Participant, error) {
	var (
		p       models.Participant
		id      uuid.UUID
		contact string
		origin  string
	)
	if err := row.Scan(&id, &p.FullName, &contact, &p.Number, &origin, &p.RegisteredAt); err != nil {
		return nil, err
	}
	p.ID = domain.ParticipantID(id)
	p.Contact = domain.Contact(contact)
	p.Origin = models.Origin(origin)
	return &p, nil
}

func collectParticipants(rows *sql.Rows) ([]*models.Participant, error) {
	var out []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
