// Package store provides extra-request persistence: an in-memory twin for
// unit tests and a PostgreSQL implementation for production.
package store

import (
	"context"
	"sort"
	"sync"

	"rifa/internal/extras/models"
	"rifa/pkg/domain"
	"rifa/pkg/platform/sentinel"
)

// InMemory keeps requests in a map. Cross-entity atomicity comes from the
// memory tx runner; the mutex protects reads outside a transaction.
type InMemory struct {
	mu   sync.RWMutex
	byID map[domain.RequestID]*models.ExtraNumberRequest
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[domain.RequestID]*models.ExtraNumberRequest)}
}

func (s *InMemory) Insert(_ context.Context, r *models.ExtraNumberRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := cloneRequest(r)
	s.byID[r.ID] = cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.RequestID) (*models.ExtraNumberRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRequest(r), nil
}

// HasPendingForContact reports whether the contact already has a pending
// request. This guard is advisory, not a hard constraint.
func (s *InMemory) HasPendingForContact(_ context.Context, contact domain.Contact) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.byID {
		if r.Contact == contact && r.Status == models.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status) ([]*models.ExtraNumberRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ExtraNumberRequest
	for _, r := range s.byID {
		if status == "" || r.Status == status {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CompleteIfPending persists the terminal transition only when the stored
// row is still pending, so a request transitions exactly once.
func (s *InMemory) CompleteIfPending(_ context.Context, r *models.ExtraNumberRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != models.StatusPending || current.Completed {
		return sentinel.ErrInvalidState
	}
	s.byID[r.ID] = cloneRequest(r)
	return nil
}

// ListProofRefs returns every stored proof reference, for cycle reset.
func (s *InMemory) ListProofRefs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]string, 0, len(s.byID))
	for _, r := range s.byID {
		refs = append(refs, r.ProofRef)
	}
	sort.Strings(refs)
	return refs, nil
}

func (s *InMemory) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[domain.RequestID]*models.ExtraNumberRequest)
	return nil
}

func cloneRequest(r *models.ExtraNumberRequest) *models.ExtraNumberRequest {
	cp := *r
	if r.ChosenNumbers != nil {
		cp.ChosenNumbers = append([]int(nil), r.ChosenNumbers...)
	}
	return &cp
}
