package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"rifa/internal/extras/models"
	extrasStore "rifa/internal/extras/store"
	"rifa/internal/pool"
	registryStore "rifa/internal/registry/store"
	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
	"rifa/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	requests     *extrasStore.InMemory
	participants *registryStore.InMemory
	service      *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.setup(1000)
}

func (s *ServiceSuite) setup(poolSize int) {
	s.requests = extrasStore.NewInMemory()
	s.participants = registryStore.NewInMemory()
	allocator := pool.New(poolSize, pool.WithRand(rand.New(rand.NewSource(1))))
	s.service = New(s.requests, s.participants, allocator, tx.NewMemoryRunner(),
		Pricing{UnitPrice: 7, TicketsPerUnit: 5},
	)
}

func (s *ServiceSuite) submit(contact string, amount int) *models.ExtraNumberRequest {
	r, err := s.service.Submit(context.Background(), "Maria Silva", contact, amount, "proof://abc.pdf")
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("happy path", func() {
		r := s.submit("(11) 98765-4321", 21)
		s.Equal(15, r.TicketCount)
		s.Equal(models.StatusPending, r.Status)
	})

	s.Run("duplicate pending for same contact", func() {
		_, err := s.service.Submit(ctx, "Maria Silva", "11987654321", 14, "proof://def.pdf")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicatePending))
	})

	s.Run("below minimum", func() {
		_, err := s.service.Submit(ctx, "Joao Souza", "(21) 91234-5678", 6, "proof://def.pdf")
		s.True(dErrors.HasCode(err, dErrors.CodeBelowMinimum))
	})

	s.Run("malformed contact", func() {
		_, err := s.service.Submit(ctx, "Joao Souza", "nope", 14, "proof://def.pdf")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestApprove() {
	ctx := context.Background()
	r := s.submit("(11) 98765-4321", 14)

	created, err := s.service.Approve(ctx, r.ID)
	s.Require().NoError(err)
	s.Require().Len(created, 10)

	seen := map[int]bool{}
	for _, p := range created {
		s.Equal("Maria Silva", p.FullName)
		s.Equal(r.Contact, p.Contact)
		s.False(seen[p.Number], "duplicate number %d", p.Number)
		seen[p.Number] = true
	}

	// The request is terminal with the numbers recorded.
	stored, err := s.requests.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, stored.Status)
	s.True(stored.Completed)
	s.Len(stored.ChosenNumbers, 10)

	count, err := s.participants.Count(ctx)
	s.Require().NoError(err)
	s.Equal(10, count)
}

func (s *ServiceSuite) TestApproveTwice() {
	ctx := context.Background()
	r := s.submit("(11) 98765-4321", 7)

	_, err := s.service.Approve(ctx, r.ID)
	s.Require().NoError(err)

	_, err = s.service.Approve(ctx, r.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestApproveUnknownRequest() {
	_, err := s.service.Approve(context.Background(), domain.NewRequestID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestApproveInsufficientPoolLeavesRequestPending() {
	ctx := context.Background()
	s.setup(8) // pool smaller than the 10 tickets the request needs

	r := s.submit("(11) 98765-4321", 14)
	_, err := s.service.Approve(ctx, r.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientPool))

	// No partial writes: zero participants, request still pending.
	count, err := s.participants.Count(ctx)
	s.Require().NoError(err)
	s.Zero(count)

	stored, err := s.requests.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
	s.False(stored.Completed)
}

func (s *ServiceSuite) TestReject() {
	ctx := context.Background()
	r := s.submit("(11) 98765-4321", 14)

	s.Require().NoError(s.service.Reject(ctx, r.ID))

	stored, err := s.requests.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, stored.Status)
	s.True(stored.Completed)
	s.Empty(stored.ChosenNumbers)

	count, err := s.participants.Count(ctx)
	s.Require().NoError(err)
	s.Zero(count)

	err = s.service.Reject(ctx, r.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestList() {
	ctx := context.Background()
	pending := s.submit("(11) 98765-4321", 7)
	approved := s.submit("(21) 91234-5678", 7)
	_, err := s.service.Approve(ctx, approved.ID)
	s.Require().NoError(err)

	s.Run("filter by status", func() {
		got, err := s.service.List(ctx, models.StatusPending)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(pending.ID, got[0].ID)
	})

	s.Run("empty status lists everything", func() {
		got, err := s.service.List(ctx, "")
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("unknown status rejected", func() {
		_, err := s.service.List(ctx, models.Status("bogus"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// TestConcurrentApprovalsAllocateDisjointNumbers approves many requests in
// parallel and verifies no ticket number is handed out twice.
func (s *ServiceSuite) TestConcurrentApprovalsAllocateDisjointNumbers() {
	ctx := context.Background()
	const requests = 10

	ids := make([]domain.RequestID, 0, requests)
	for i := 0; i < requests; i++ {
		contact := []string{
			"(11) 90000-0001", "(11) 90000-0002", "(11) 90000-0003", "(11) 90000-0004",
			"(11) 90000-0005", "(11) 90000-0006", "(11) 90000-0007", "(11) 90000-0008",
			"(11) 90000-0009", "(11) 90000-0010",
		}[i]
		r := s.submit(contact, 7)
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id domain.RequestID) {
			defer wg.Done()
			_, err := s.service.Approve(ctx, id)
			s.NoError(err)
		}(id)
	}
	wg.Wait()

	claimed, err := s.participants.ClaimedNumbers(ctx)
	s.Require().NoError(err)
	s.Len(claimed, requests*5)

	seen := map[int]bool{}
	for _, n := range claimed {
		s.False(seen[n], "number %d allocated twice", n)
		seen[n] = true
	}
}
