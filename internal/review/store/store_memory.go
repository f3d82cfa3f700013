package store

import (
	"context"
	"sort"
	"sync"

	"gavel/internal/review/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/requestcontext"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ReviewID]*models.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.ReviewID]*models.Entry)}
}

func (s *InMemoryStore) Add(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneEntry(entry)
	s.entries[entry.ID] = cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, reviewID id.ReviewID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (s *InMemoryStore) ListOpen(_ context.Context) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Entry
	for _, e := range s.entries {
		if e.Open() {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Close(ctx context.Context, reviewID id.ReviewID, status models.Status, resolution string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[reviewID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !e.Open() {
		return sentinel.ErrInvalidState
	}
	now := requestcontext.Now(ctx)
	e.Status = status
	e.Resolution = resolution
	e.ResolvedAt = &now
	e.UpdatedAt = now
	return nil
}

func cloneEntry(e *models.Entry) *models.Entry {
	cp := *e
	cp.Candidates = append([]id.JudgeID(nil), e.Candidates...)
	if e.ResolvedAt != nil {
		t := *e.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}
