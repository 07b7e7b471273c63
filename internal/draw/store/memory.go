// Package store persists the draw outcome. The insert is the serialization
// point that makes the draw a one-shot event: both implementations admit at
// most one row and report a conflict otherwise.
package store

import (
	"context"
	"sync"

	"rifa/internal/draw/models"
	"rifa/pkg/platform/sentinel"
)

// InMemory holds at most one outcome.
type InMemory struct {
	mu      sync.RWMutex
	outcome *models.DrawOutcome
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Insert(_ context.Context, o *models.DrawOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != nil {
		return sentinel.ErrConflict
	}
	cp := *o
	s.outcome = &cp
	return nil
}

func (s *InMemory) Get(_ context.Context) (*models.DrawOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.outcome == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.outcome
	return &cp, nil
}

func (s *InMemory) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = nil
	return nil
}
