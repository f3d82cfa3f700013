package court

import (
	"context"
	"sync"

	"gavel/internal/directory/models"
	"gavel/internal/identity/jurisdiction"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// InMemoryStore keeps courts keyed by ID with a jurisdiction scan on read.
// Court counts are small; a linear scan beats maintaining a prefix index.
type InMemoryStore struct {
	mu     sync.RWMutex
	courts map[id.CourtID]*models.Court
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{courts: make(map[id.CourtID]*models.Court)}
}

func (s *InMemoryStore) Create(_ context.Context, court *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courts[court.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *court
	s.courts[court.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, courtID id.CourtID) (*models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courts[courtID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) FindByJurisdiction(_ context.Context, jurisdictionKey string) ([]*models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Court
	for _, c := range s.courts {
		if c.JurisdictionKey == jurisdictionKey || jurisdiction.IsAncestor(jurisdictionKey, c.JurisdictionKey) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Court, 0, len(s.courts))
	for _, c := range s.courts {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}
