package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rifa/internal/extras/models"
	"rifa/pkg/domain"
	"rifa/pkg/platform/sentinel"
	"rifa/pkg/platform/tx"
)

// Postgres persists extra requests in PostgreSQL. Pure I/O; the approval
// orchestration runs in the service inside a tx.Runner transaction.
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

func (s *Postgres) Insert(ctx context.Context, r *models.ExtraNumberRequest) error {
	query := `
		INSERT INTO extra_requests (id, requester_name, contact, amount, ticket_count, proof_ref, status, completed, chosen_numbers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), r.RequesterName, r.Contact.String(), r.Amount, r.TicketCount,
		r.ProofRef, string(r.Status), r.Completed, pq.Array(chosenOrEmpty(r)), r.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert extra request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.RequestID) (*models.ExtraNumberRequest, error) {
	query := selectRequest + ` WHERE id = $1`
	r, err := scanRequest(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find extra request: %w", err)
	}
	return r, nil
}

func (s *Postgres) HasPendingForContact(ctx context.Context, contact domain.Contact) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM extra_requests WHERE contact = $1 AND status = 'pending')`,
		contact.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.Status) ([]*models.ExtraNumberRequest, error) {
	query := selectRequest + ` WHERE ($1 = '' OR status = $1) ORDER BY created_at`
	rows, err := s.q(ctx).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list extra requests: %w", err)
	}
	defer rows.Close()

	var out []*models.ExtraNumberRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extra request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CompleteIfPending writes the terminal state with a conditional UPDATE so a
// request transitions exactly once even under concurrent operator decisions.
func (s *Postgres) CompleteIfPending(ctx context.Context, r *models.ExtraNumberRequest) error {
	query := `
		UPDATE extra_requests
		SET status = $2, completed = $3, chosen_numbers = $4
		WHERE id = $1 AND status = 'pending' AND NOT completed
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), string(r.Status), r.Completed, pq.Array(chosenOrEmpty(r)),
	)
	if err != nil {
		return fmt.Errorf("complete extra request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete extra request rows affected: %w", err)
	}
	if affected == 0 {
		if _, findErr := s.FindByID(ctx, r.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Postgres) ListProofRefs(ctx context.Context) ([]string, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT proof_ref FROM extra_requests ORDER BY proof_ref`)
	if err != nil {
		return nil, fmt.Errorf("list proof refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan proof ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM extra_requests`); err != nil {
		return fmt.Errorf("delete all extra requests: %w", err)
	}
	return nil
}

// chosenOrEmpty keeps a nil slice out of the NOT NULL array column.
func chosenOrEmpty(r *models.ExtraNumberRequest) []int {
	if r.ChosenNumbers == nil {
		return []int{}
	}
	return r.ChosenNumbers
}

const selectRequest = `
	SELECT id, requester_name, contact, amount, ticket_count, proof_ref, status, completed, chosen_numbers, created_at
	FROM extra_requests`

type requestRow interface {
	Scan(dest ...any) error
}

func scanRequest(row requestRow) (*models.ExtraNumberRequest, error) {
	var (
		r       models.ExtraNumberRequest
		id      uuid.UUID
		contact string
		status  string
		chosen  pq.Int64Array
	)
	if err := row.Scan(&id, &r.RequesterName, &contact, &r.Amount, &r.TicketCount,
		&r.ProofRef, &status, &r.Completed, &chosen, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.ID = domain.RequestID(id)
	r.Contact = domain.Contact(contact)
	r.Status = models.Status(status)
	if len(chosen) > 0 {
		r.ChosenNumbers = make([]int, len(chosen))
		for i, n := range chosen {
			r.ChosenNumbers[i] = int(n)
		}
	}
	return &r, nil
}
