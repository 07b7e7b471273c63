package store

import (
	"context"
	"sort"
	"sync"

	"rifa/internal/registry/models"
	"rifa/pkg/domain"
	"rifa/pkg/platform/sentinel"
)

// InMemory keeps participants in maps keyed by the invariants we enforce.
// Atomicity across calls comes from the memory tx runner; the internal mutex
// only protects reads that run outside a transaction.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[domain.ParticipantID]*models.Participant
	byNumber map[int]*models.Participant
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[domain.ParticipantID]*models.Participant),
		byNumber: make(map[int]*models.Participant),
	}
}

func (s *InMemory) Insert(_ context.Context, p *models.Participant) error {
	if p == nil || p.ID.IsZero() {
		return errParticipantID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNumber[p.Number]; ok {
		return ErrNumberTaken
	}
	if p.Origin == models.OriginDirect {
		for _, existing := range s.byID {
			if existing.Contact == p.Contact && existing.Origin == models.OriginDirect {
				return ErrContactTaken
			}
		}
	}
	cp := *p
	s.byID[cp.ID] = &cp
	s.byNumber[cp.Number] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ParticipantID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByNumber(_ context.Context, number int) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byNumber[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// FindByContact returns every ticket the contact holds, base and extras,
// ordered by ticket number.
func (s *InMemory) FindByContact(_ context.Context, contact domain.Contact) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Participant
	for _, p := range s.byID {
		if p.Contact == contact {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, id domain.ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byNumber, p.Number)
	return nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Participant, 0, len(s.byID))
	for _, p := range s.byID {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *InMemory) ClaimedNumbers(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.byNumber))
	for n := range s.byNumber {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *InMemory) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[domain.ParticipantID]*models.Participant)
	s.byNumber = make(map[int]*models.Participant)
	return nil
}
