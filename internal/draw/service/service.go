package service

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"rifa/internal/draw/models"
	"rifa/internal/platform/metrics"
	registrymodels "rifa/internal/registry/models"
	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
	"rifa/pkg/platform/sentinel"
	"rifa/pkg/platform/tx"
	"rifa/pkg/requestcontext"
)

// OutcomeStore persists the single draw outcome.
type OutcomeStore interface {
	Insert(ctx context.Context, o *models.DrawOutcome) error
	Get(ctx context.Context) (*models.DrawOutcome, error)
}

// ParticipantLister is the slice of the registry store the draw reads.
type ParticipantLister interface {
	ListAll(ctx context.Context) ([]*registrymodels.Participant, error)
}

// Notifier is the fire-and-forget notification collaborator.
type Notifier interface {
	Emit(ctx context.Context, event string, fields map[string]any)
}

// Service selects one winning participant uniformly at random, exactly once
// per cycle. Every participant row is an equally weighted entry, so a contact
// holding k tickets carries k times the chance of a single-ticket contact.
type Service struct {
	outcomes     OutcomeStore
	participants ParticipantLister
	runner       tx.Runner
	logger       *slog.Logger
	metrics      *metrics.Metrics
	notifier     Notifier

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRand injects a deterministic source for fairness tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

func New(outcomes OutcomeStore, participants ParticipantLister, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		outcomes:     outcomes,
		participants: participants,
		runner:       runner,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		var b [8]byte
		_, _ = crand.Read(b[:])
		s.rng = rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
	}
	return s
}

// Draw performs the one-shot random selection. The existence check and the
// outcome insert commit as one transaction; two simultaneous draws cannot
// both succeed.
func (s *Service) Draw(ctx context.Context) (*models.DrawOutcome, error) {
	var outcome *models.DrawOutcome
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.outcomes.Get(txCtx); err == nil {
			return dErrors.New(dErrors.CodeAlreadyDrawn, "the draw has already happened this cycle")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return translateStoreErr(err)
		}

		rows, err := s.participants.ListAll(txCtx)
		if err != nil {
			return translateStoreErr(err)
		}
		if len(rows) == 0 {
			return dErrors.New(dErrors.CodeNoParticipants, "no participants to draw from")
		}

		s.mu.Lock()
		winner := rows[s.rng.Intn(len(rows))]
		s.mu.Unlock()

		o := &models.DrawOutcome{
			ID:            domain.NewOutcomeID(),
			ParticipantID: winner.ID,
			TicketNumber:  winner.Number,
			FullName:      winner.FullName,
			Contact:       winner.Contact,
			DrawnAt:       requestcontext.Now(txCtx),
		}
		if err := s.outcomes.Insert(txCtx, o); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyDrawn, "the draw has already happened this cycle")
			}
			return translateStoreErr(err)
		}
		outcome = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementDraws()
	s.notify(ctx, "draw.done", map[string]any{
		"ticket_number": outcome.TicketNumber,
	})
	s.logger.InfoContext(ctx, "draw completed",
		"ticket_number", outcome.TicketNumber,
		"participant_id", outcome.ParticipantID.String(),
	)
	return outcome, nil
}

// Outcome returns the current cycle's outcome, or NotFound before the draw.
func (s *Service) Outcome(ctx context.Context) (*models.DrawOutcome, error) {
	o, err := s.outcomes.Get(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no draw outcome yet")
		}
		return nil, translateStoreErr(err)
	}
	return o, nil
}

func (s *Service) notify(ctx context.Context, event string, fields map[string]any) {
	if s.notifier != nil {
		s.notifier.Emit(ctx, event, fields)
	}
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store timeout, outcome unknown")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store failure")
	}
}
