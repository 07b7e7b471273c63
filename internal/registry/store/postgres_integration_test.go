//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rifa/internal/registry/models"
	"rifa/internal/registry/store"
	"rifa/pkg/domain"
	"rifa/pkg/platform/sentinel"
	"rifa/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "participants", "extra_requests", "draw_outcomes")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newParticipant(name, rawContact string, number int, origin models.Origin) *models.Participant {
	contact, ok := domain.ParseContact(rawContact)
	s.Require().True(ok)
	p, err := models.NewParticipant(domain.NewParticipantID(), name, contact, number, 1000, origin, time.Now().UTC())
	s.Require().NoError(err)
	return p
}

func (s *PostgresStoreSuite) TestInsertAndFind() {
	ctx := context.Background()
	p := s.newParticipant("Maria Silva", "(11) 98765-4321", 42, models.OriginDirect)
	s.Require().NoError(s.store.Insert(ctx, p))

	got, err := s.store.FindByNumber(ctx, 42)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal(p.Contact, got.Contact)
	s.Equal(models.OriginDirect, got.Origin)
}

func (s *PostgresStoreSuite) TestUniqueNumberConstraint() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newParticipant("Maria Silva", "(11) 98765-4321", 42, models.OriginDirect)))

	err := s.store.Insert(ctx, s.newParticipant("Joao Souza", "(21) 91234-5678", 42, models.OriginDirect))
	s.Require().ErrorIs(err, store.ErrNumberTaken)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestDirectContactConstraintExemptsExtras() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newParticipant("Maria Silva", "(11) 98765-4321", 1, models.OriginDirect)))

	err := s.store.Insert(ctx, s.newParticipant("Maria Silva", "(11) 98765-4321", 2, models.OriginDirect))
	s.Require().ErrorIs(err, store.ErrContactTaken)

	// Extras rows for the same contact pass the partial index.
	s.NoError(s.store.Insert(ctx, s.newParticipant("Maria Silva", "(11) 98765-4321", 3, models.OriginExtra)))
}

// TestConcurrentSameNumberInserts drives concurrent inserts at one ticket
// number straight into the database constraint; exactly one succeeds.
func (s *PostgresStoreSuite) TestConcurrentSameNumberInserts() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var successes, conflicts, unexpected atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contact := fmt.Sprintf("(11) 9%04d-%04d", i, i)
			p := s.newParticipant("Pessoa Concorrente", contact, 500, models.OriginDirect)
			switch err := s.store.Insert(ctx, p); {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, store.ErrNumberTaken):
				conflicts.Add(1)
			default:
				unexpected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
	s.Equal(int32(0), unexpected.Load())
}

func (s *PostgresStoreSuite) TestDeleteAndClaimedNumbers() {
	ctx := context.Background()
	p := s.newParticipant("Maria Silva", "(11) 98765-4321", 7, models.OriginDirect)
	s.Require().NoError(s.store.Insert(ctx, p))
	s.Require().NoError(s.store.Insert(ctx, s.newParticipant("Joao Souza", "(21) 91234-5678", 3, models.OriginDirect)))

	claimed, err := s.store.ClaimedNumbers(ctx)
	s.Require().NoError(err)
	s.Equal([]int{3, 7}, claimed)

	s.Require().NoError(s.store.Delete(ctx, p.ID))
	s.ErrorIs(s.store.Delete(ctx, p.ID), sentinel.ErrNotFound)

	claimed, err = s.store.ClaimedNumbers(ctx)
	s.Require().NoError(err)
	s.Equal([]int{3}, claimed)
}
