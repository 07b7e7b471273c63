package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"rifa/internal/registry/models"
	"rifa/internal/registry/store"
	dErrors "rifa/pkg/domain-errors"
	"rifa/pkg/platform/tx"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Emit(_ context.Context, event string, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type ServiceSuite struct {
	suite.Suite
	store    *store.InMemory
	notifier *recordingNotifier
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.notifier = &recordingNotifier{}
	s.service = New(s.store, tx.NewMemoryRunner(), 1000,
		WithNotifier(s.notifier),
	)
}

func (s *ServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("happy path", func() {
		p, err := s.service.Register(ctx, "Maria Silva", "(11) 98765-4321", 42)
		s.Require().NoError(err)
		s.Equal(42, p.Number)
		s.Equal(models.OriginDirect, p.Origin)
		s.Contains(s.notifier.Events(), "participant.registered")
	})

	s.Run("number already claimed", func() {
		_, err := s.service.Register(ctx, "Joao Souza", "(21) 91234-5678", 42)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNumberTaken))
	})

	s.Run("contact already registered", func() {
		_, err := s.service.Register(ctx, "Maria Silva", "11987654321", 43)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeContactRegistered))

		// The conflicting rows travel with the error for recovery flows.
		v, ok := dErrors.Load(err, "participants")
		s.Require().True(ok)
		rows, ok := v.([]*models.Participant)
		s.Require().True(ok)
		s.Require().Len(rows, 1)
		s.Equal(42, rows[0].Number)
	})

	s.Run("number conflict reported before contact conflict", func() {
		// Same contact as the existing row AND a claimed number: the number
		// check wins.
		_, err := s.service.Register(ctx, "Maria Silva", "(11) 98765-4321", 42)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNumberTaken))
	})

	s.Run("malformed contact", func() {
		_, err := s.service.Register(ctx, "Ana Costa", "not-a-phone", 50)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("number out of range", func() {
		_, err := s.service.Register(ctx, "Ana Costa", "(31) 98888-7777", 1001)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestLookupByContact() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, "Maria Silva", "(11) 98765-4321", 42)
	s.Require().NoError(err)

	s.Run("returns rows for any spelling of the contact", func() {
		rows, err := s.service.LookupByContact(ctx, "11987654321")
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(42, rows[0].Number)
	})

	s.Run("unknown contact returns empty", func() {
		rows, err := s.service.LookupByContact(ctx, "(99) 99999-9999")
		s.Require().NoError(err)
		s.Empty(rows)
	})

	s.Run("malformed contact", func() {
		_, err := s.service.LookupByContact(ctx, "abc")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestRemove() {
	ctx := context.Background()
	p, err := s.service.Register(ctx, "Maria Silva", "(11) 98765-4321", 42)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Remove(ctx, p.ID))

	// The number is free again.
	_, err = s.service.Register(ctx, "Joao Souza", "(21) 91234-5678", 42)
	s.NoError(err)

	err = s.service.Remove(ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestAvailability() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, "Maria Silva", "(11) 98765-4321", 7)
	s.Require().NoError(err)
	_, err = s.service.Register(ctx, "Joao Souza", "(21) 91234-5678", 3)
	s.Require().NoError(err)

	availability, err := s.service.Availability(ctx)
	s.Require().NoError(err)
	s.Equal(1000, availability.PoolSize)
	s.Equal([]int{3, 7}, availability.Claimed)
	s.Equal(2, availability.ParticipantCount)
}

// TestConcurrentRegistrationsSameNumber drives many goroutines at one ticket
// number; exactly one may win.
func (s *ServiceSuite) TestConcurrentRegistrationsSameNumber() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contact := fmt.Sprintf("(11) 9%04d-%04d", i, i)
			_, err := s.service.Register(ctx, "Pessoa Numero", contact, 500)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNumberTaken):
				conflicts.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
