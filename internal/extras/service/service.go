package service

import (
	"context"
	"errors"
	"log/slog"

	"rifa/internal/extras/models"
	"rifa/internal/platform/metrics"
	"rifa/internal/pool"
	registrymodels "rifa/internal/registry/models"
	registrystore "rifa/internal/registry/store"
	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
	"rifa/pkg/platform/sentinel"
	"rifa/pkg/platform/tx"
	"rifa/pkg/requestcontext"
)

// RequestStore is the extra-request persistence contract.
type RequestStore interface {
	Insert(ctx context.Context, r *models.ExtraNumberRequest) error
	FindByID(ctx context.Context, id domain.RequestID) (*models.ExtraNumberRequest, error)
	HasPendingForContact(ctx context.Context, contact domain.Contact) (bool, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.ExtraNumberRequest, error)
	CompleteIfPending(ctx context.Context, r *models.ExtraNumberRequest) error
}

// ParticipantStore is the slice of the registry store the workflow needs to
// turn an approval into allocated ticket rows.
type ParticipantStore interface {
	Insert(ctx context.Context, p *registrymodels.Participant) error
	ClaimedNumbers(ctx context.Context) ([]int, error)
	Count(ctx context.Context) (int, error)
}

// AvailabilityCache mirrors the registry read model so approvals keep the
// public availability display fresh.
type AvailabilityCache interface {
	Refresh(ctx context.Context, claimed []int, count int)
}

// Notifier is the fire-and-forget notification collaborator.
type Notifier interface {
	Emit(ctx context.Context, event string, fields map[string]any)
}

// Pricing holds the configuration constants behind the extra-ticket count
// computation.
type Pricing struct {
	UnitPrice      int
	TicketsPerUnit int
}

// Service is the extra-number request workflow:
// pending -> approved(+completed) or pending -> rejected(+completed).
type Service struct {
	requests     RequestStore
	participants ParticipantStore
	allocator    *pool.Allocator
	runner       tx.Runner
	pricing      Pricing
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

func New(requests RequestStore, participants ParticipantStore, allocator *pool.Allocator, runner tx.Runner, pricing Pricing, opts ...Option) *Service {
	s := &Service{
		requests:     requests,
		participants: participants,
		allocator:    allocator,
		runner:       runner,
		pricing:      pricing,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records a purchase-proof claim as a pending request. The duplicate
// pending guard is advisory: a rare race producing two pending requests is
// tolerated and both are processed independently at approval time.
func (s *Service) Submit(ctx context.Context, requesterName, rawContact string, amount int, proofRef string) (*models.ExtraNumberRequest, error) {
	contact, ok := domain.ParseContact(rawContact)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "contact must be a phone number in the form (DD) DDDDD-DDDD")
	}

	request, err := models.NewRequest(domain.NewRequestID(), requesterName, contact,
		amount, s.pricing.UnitPrice, s.pricing.TicketsPerUnit, proofRef, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	pending, err := s.requests.HasPendingForContact(ctx, contact)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if pending {
		return nil, dErrors.New(dErrors.CodeDuplicatePending, "contact already has a pending request")
	}

	if err := s.requests.Insert(ctx, request); err != nil {
		return nil, translateStoreErr(err)
	}

	s.metrics.IncrementRequestsSubmitted()
	s.notify(ctx, "request.submitted", map[string]any{
		"request_id":   request.ID.String(),
		"ticket_count": request.TicketCount,
	})
	return request, nil
}

// Approve allocates the request's ticket numbers and creates one participant
// row per number, all in one transaction with the request transition. On
// InsufficientPool the request stays pending and nothing is written; the
// operator may retry once the pool changes.
func (s *Service) Approve(ctx context.Context, id domain.RequestID) ([]*registrymodels.Participant, error) {
	var created []*registrymodels.Participant
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requests.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "request not found")
			}
			return translateStoreErr(err)
		}
		if err := request.CanDecide(); err != nil {
			return err
		}

		claimed, err := s.participants.ClaimedNumbers(txCtx)
		if err != nil {
			return translateStoreErr(err)
		}
		numbers, err := s.allocator.Allocate(claimed, request.TicketCount)
		if err != nil {
			// InsufficientPool propagates before any write: the request
			// remains pending.
			return err
		}

		now := requestcontext.Now(txCtx)
		rows := make([]*registrymodels.Participant, 0, len(numbers))
		for _, number := range numbers {
			p, err := registrymodels.NewParticipant(domain.NewParticipantID(),
				request.RequesterName, request.Contact, number, s.allocator.Size(),
				registrymodels.OriginExtra, now)
			if err != nil {
				return err
			}
			if err := s.participants.Insert(txCtx, p); err != nil {
				return translateStoreErr(err)
			}
			rows = append(rows, p)
		}

		request.ApplyApproval(numbers)
		if err := s.requests.CompleteIfPending(txCtx, request); err != nil {
			return translateStoreErr(err)
		}
		created = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementRequestsApproved()
	s.metrics.AddTicketsAllocated(len(created))
	s.refreshReadModel(ctx)
	s.notify(ctx, "request.approved", map[string]any{
		"request_id":   id.String(),
		"ticket_count": len(created),
	})
	return created, nil
}

// Reject completes the request terminally with no numbers allocated. The
// proof reference stays on the record.
func (s *Service) Reject(ctx context.Context, id domain.RequestID) error {
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requests.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "request not found")
			}
			return translateStoreErr(err)
		}
		if err := request.CanDecide(); err != nil {
			return err
		}
		request.ApplyRejection()
		return translateStoreErr(s.requests.CompleteIfPending(txCtx, request))
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementRequestsRejected()
	s.notify(ctx, "request.rejected", map[string]any{"request_id": id.String()})
	return nil
}

// List returns requests filtered by status; empty status lists everything.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.ExtraNumberRequest, error) {
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown request status")
	}
	requests, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return requests, nil
}

func (s *Service) refreshReadModel(ctx context.Context) {
	if s.cache == nil && s.metrics == nil {
		return
	}
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

func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, registrystore.ErrNumberTaken):
		// A concurrent commit claimed one of our numbers after the snapshot;
		// the whole transaction rolls back and the request stays pending.
		return dErrors.Wrap(err, dErrors.CodeNumberTaken, "allocated number lost to a concurrent claim")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "request already processed")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store timeout, outcome unknown")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store failure")
	}
}
