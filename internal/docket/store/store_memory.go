package store

import (
	"context"
	"sort"
	"sync"

	"gavel/internal/docket/models"
	"gavel/internal/identity/jurisdiction"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/requestcontext"
)

// InMemoryStore keeps cases with an external-ID index for idempotent
// ingestion and a per-judge index for analytics reads.
type InMemoryStore struct {
	mu      sync.RWMutex
	cases   map[id.CaseID]*models.Case
	byExtID map[string]id.CaseID
	byJudge map[id.JudgeID]map[id.CaseID]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		cases:   make(map[id.CaseID]*models.Case),
		byExtID: make(map[string]id.CaseID),
		byJudge: make(map[id.JudgeID]map[id.CaseID]bool),
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, c *models.Case) (*models.Case, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byExtID[c.ExternalID]; ok {
		cp := *s.cases[existingID]
		return &cp, true, nil
	}
	cp := *c
	s.cases[c.ID] = &cp
	s.byExtID[c.ExternalID] = c.ID
	return nil, false, nil
}

func (s *InMemoryStore) Get(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) GetByExternalID(_ context.Context, externalID string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caseID, ok := s.byExtID[externalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.cases[caseID]
	return &cp, nil
}

func (s *InMemoryStore) Resolve(ctx context.Context, caseID id.CaseID, judgeID id.JudgeID, positionID id.PositionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status == models.StatusResolved && c.JudgeID == judgeID && c.PositionID == positionID {
		return nil
	}
	// Re-resolution after a correction moves the case between judges.
	if prev := s.byJudge[c.JudgeID]; prev != nil {
		delete(prev, caseID)
	}
	c.JudgeID = judgeID
	c.PositionID = positionID
	c.Status = models.StatusResolved
	c.UpdatedAt = requestcontext.Now(ctx)

	set := s.byJudge[judgeID]
	if set == nil {
		set = make(map[id.CaseID]bool)
		s.byJudge[judgeID] = set
	}
	set[caseID] = true
	return nil
}

func (s *InMemoryStore) MarkAmbiguous(ctx context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status == models.StatusResolved {
		return sentinel.ErrInvalidState
	}
	c.Status = models.StatusAmbiguous
	c.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *InMemoryStore) ListResolvedByJudge(_ context.Context, judgeID id.JudgeID, window models.Window) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Case
	for caseID := range s.byJudge[judgeID] {
		c := s.cases[caseID]
		if c.Status == models.StatusResolved && window.Contains(c.DecidedAt) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DecidedAt.Before(out[j].DecidedAt) })
	return out, nil
}

func (s *InMemoryStore) CountResolvedByJudge(ctx context.Context, judgeID id.JudgeID, window models.Window) (int, error) {
	cases, err := s.ListResolvedByJudge(ctx, judgeID, window)
	if err != nil {
		return 0, err
	}
	return len(cases), nil
}

func (s *InMemoryStore) ListResolvedByJurisdiction(_ context.Context, jurisdictionKey string, window models.Window) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Case
	for _, c := range s.cases {
		if c.Status != models.StatusResolved || !window.Contains(c.DecidedAt) {
			continue
		}
		if c.JurisdictionKey == jurisdictionKey || jurisdiction.IsAncestor(jurisdictionKey, c.JurisdictionKey) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}
