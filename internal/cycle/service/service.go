// Package service implements the cycle reset controller. The raffle's entire
// mutable state is one resettable cycle; reset rotates it in a single
// transaction and then clears derived state best-effort.
package service

import (
	"context"
	"errors"
	"log/slog"

	"rifa/internal/platform/metrics"
	dErrors "rifa/pkg/domain-errors"
	"rifa/pkg/platform/tx"
)

// ParticipantWiper clears all participant rows.
type ParticipantWiper interface {
	DeleteAll(ctx context.Context) error
}

// RequestWiper clears all extra requests and exposes their proof references.
type RequestWiper interface {
	ListProofRefs(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) error
}

// OutcomeWiper clears the draw outcome.
type OutcomeWiper interface {
	Delete(ctx context.Context) error
}

// ProofDeleter is the external proof-storage collaborator. Failures must not
// roll back a committed reset.
type ProofDeleter interface {
	Delete(ctx context.Context, uri string) error
}

// CacheInvalidator drops the availability read model.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Notifier is the fire-and-forget notification collaborator.
type Notifier interface {
	Emit(ctx context.Context, event string, fields map[string]any)
}

// Service resets the raffle to its initial state on operator demand.
type Service struct {
	participants ParticipantWiper
	requests     RequestWiper
	outcomes     OutcomeWiper
	runner       tx.Runner
	logger       *slog.Logger
	metrics      *metrics.Metrics
	proofs       ProofDeleter
	cache        CacheInvalidator
	notifier     Notifier
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithProofDeleter(p ProofDeleter) Option {
	return func(s *Service) { s.proofs = p }
}

func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func New(participants ParticipantWiper, requests RequestWiper, outcomes OutcomeWiper, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		participants: participants,
		requests:     requests,
		outcomes:     outcomes,
		runner:       runner,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset wipes the draw outcome, every request and every participant in one
// transaction. The wipe order does not matter for correctness (it is atomic)
// but deleting the outcome first keeps any partial re-run from ever exposing
// a winner without participants.
func (s *Service) Reset(ctx context.Context) error {
	var proofRefs []string
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		refs, err := s.requests.ListProofRefs(txCtx)
		if err != nil {
			return translateStoreErr(err)
		}
		proofRefs = refs

		if err := s.outcomes.Delete(txCtx); err != nil {
			return translateStoreErr(err)
		}
		if err := s.requests.DeleteAll(txCtx); err != nil {
			return translateStoreErr(err)
		}
		if err := s.participants.DeleteAll(txCtx); err != nil {
			return translateStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Collaborator cleanup after the commit; failures are logged only.
	if s.proofs != nil {
		for _, ref := range proofRefs {
			if err := s.proofs.Delete(ctx, ref); err != nil {
				s.logger.WarnContext(ctx, "proof cleanup failed", "proof_ref", ref, "error", err)
			}
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.metrics.IncrementResets()
	s.metrics.SetParticipants(0)
	if s.notifier != nil {
		s.notifier.Emit(ctx, "cycle.reset", map[string]any{"proofs_removed": len(proofRefs)})
	}
	s.logger.InfoContext(ctx, "cycle reset complete", "proofs_removed", len(proofRefs))
	return nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store timeout, outcome unknown")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store failure")
	}
}
