package service

import (
	"context"
	"errors"
	"log/slog"

	"rifa/internal/platform/metrics"
	"rifa/internal/registry/models"
	"rifa/internal/registry/store"
	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
	"rifa/pkg/platform/sentinel"
	"rifa/pkg/platform/tx"
	"rifa/pkg/requestcontext"
)

// Store is the participant persistence contract the registry needs.
type Store interface {
	Insert(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id domain.ParticipantID) (*models.Participant, error)
	FindByNumber(ctx context.Context, number int) (*models.Participant, error)
	FindByContact(ctx context.Context, contact domain.Contact) ([]*models.Participant, error)
	Delete(ctx context.Context, id domain.ParticipantID) error
	ClaimedNumbers(ctx context.Context) ([]int, error)
	Count(ctx context.Context) (int, error)
}

// AvailabilityCache is the optional read model for UI availability display.
// It is never consulted on the write path.
type AvailabilityCache interface {
	Claimed(ctx context.Context) ([]int, bool)
	Count(ctx context.Context) (int, bool)
	Refresh(ctx context.Context, claimed []int, count int)
}

// Notifier is the fire-and-forget notification collaborator.
type Notifier interface {
	Emit(ctx context.Context, event string, fields map[string]any)
}

// Availability is the read model served to the public availability endpoint.
type Availability struct {
	PoolSize         int
	Claimed          []int
	ParticipantCount int
}

// Service owns the participant entity and its two uniqueness invariants:
// ticket numbers are claimed at most once, and a contact registers directly
// at most once (extras rows flow through the approval workflow).
type Service struct {
	participants Store
	runner       tx.Runner
	poolSize     int
	logger       *slog.Logger
	metrics      *metrics.Metrics
	cache        AvailabilityCache
	notifier     Notifier
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCache(cache AvailabilityCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func New(participants Store, runner tx.Runner, poolSize int, opts ...Option) *Service {
	s := &Service{
		participants: participants,
		runner:       runner,
		poolSize:     poolSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register claims one ticket number for a new contact. The claim check, the
// contact check and the insert commit as a single transaction; two concurrent
// callers targeting the same number cannot both succeed.
func (s *Service) Register(ctx context.Context, fullName, rawContact string, number int) (*models.Participant, error) {
	contact, ok := domain.ParseContact(rawContact)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "contact must be a phone number in the form (DD) DDDDD-DDDD")
	}

	var participant *models.Participant
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.participants.FindByNumber(txCtx, number); err == nil {
			return dErrors.New(dErrors.CodeNumberTaken, "ticket number already claimed")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return translateStoreErr(err)
		}

		existing, err := s.participants.FindByContact(txCtx, contact)
		if err != nil {
			return translateStoreErr(err)
		}
		for _, row := range existing {
			if row.Origin == models.OriginDirect {
				// Return the rows so the caller can offer account recovery
				// instead of a bare failure.
				conflict := dErrors.New(dErrors.CodeContactRegistered, "contact already has a registration")
				return dErrors.Add(conflict, "participants", existing)
			}
		}

		p, err := models.NewParticipant(domain.NewParticipantID(), fullName, contact, number, s.poolSize, models.OriginDirect, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.participants.Insert(txCtx, p); err != nil {
			return translateStoreErr(err)
		}
		participant = p
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNumberTaken) || dErrors.HasCode(err, dErrors.CodeContactRegistered) {
			s.metrics.IncrementRegistrationConflicts()
		}
		return nil, err
	}

	s.metrics.IncrementRegistrations()
	s.metrics.AddTicketsAllocated(1)
	s.refreshReadModel(ctx)
	s.notify(ctx, "participant.registered", map[string]any{
		"participant_id": participant.ID.String(),
		"ticket_number":  participant.Number,
	})
	return participant, nil
}

// LookupByContact returns every ticket the contact holds, base and extras.
func (s *Service) LookupByContact(ctx context.Context, rawContact string) ([]*models.Participant, error) {
	contact, ok := domain.ParseContact(rawContact)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "contact must be a phone number in the form (DD) DDDDD-DDDD")
	}
	rows, err := s.participants.FindByContact(ctx, contact)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return rows, nil
}

// Remove hard-deletes one participant row. The freed number becomes available
// to future allocations immediately.
func (s *Service) Remove(ctx context.Context, id domain.ParticipantID) error {
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.participants.Delete(txCtx, id); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "participant not found")
			}
			return translateStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.refreshReadModel(ctx)
	return nil
}

// Availability serves the claimed-number set and participant count for UI
// rendering. Cache reads are eventually consistent; authoritative enforcement
// stays in the write path.
func (s *Service) Availability(ctx context.Context) (*Availability, error) {
	if s.cache != nil {
		if claimed, ok := s.cache.Claimed(ctx); ok {
			if count, ok := s.cache.Count(ctx); ok {
				return &Availability{PoolSize: s.poolSize, Claimed: claimed, ParticipantCount: count}, nil
			}
		}
	}

	claimed, err := s.participants.ClaimedNumbers(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	count, err := s.participants.Count(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if s.cache != nil {
		s.cache.Refresh(ctx, claimed, count)
	}
	return &Availability{PoolSize: s.poolSize, Claimed: claimed, ParticipantCount: count}, nil
}

// refreshReadModel repopulates the cache and gauge after a committed write.
// Failures are logged, never propagated: the read model is derived state.
func (s *Service) refreshReadModel(ctx context.Context) {
	claimed, err := s.participants.ClaimedNumbers(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read model refresh skipped", "error", err)
		return
	}
	count, err := s.participants.Count(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read model refresh skipped", "error", err)
		return
	}
	s.metrics.SetParticipants(count)
	if s.cache != nil {
		s.cache.Refresh(ctx, claimed, count)
	}
}

func (s *Service) notify(ctx context.Context, event string, fields map[string]any) {
	if s.notifier != nil {
		s.notifier.Emit(ctx, event, fields)
	}
}

// translateStoreErr maps infrastructure facts onto domain errors. Anything
// unrecognised is an unknown-outcome store failure the caller may retry.
func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNumberTaken):
		return dErrors.Wrap(err, dErrors.CodeNumberTaken, "ticket number already claimed")
	case errors.Is(err, store.ErrContactTaken):
		return dErrors.Wrap(err, dErrors.CodeContactRegistered, "contact already has a registration")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store timeout, outcome unknown")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store failure")
	}
}
