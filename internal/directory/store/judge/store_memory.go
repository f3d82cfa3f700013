package judge

import (
	"context"
	"sync"

	"gavel/internal/directory/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// InMemoryStore is the unit-test substrate and the fallback when Postgres is
// not configured. Lookup indexes mirror what the Postgres store does with
// btree indexes.
type InMemoryStore struct {
	mu       sync.RWMutex
	judges   map[id.JudgeID]*models.Judge
	byName   map[string]map[id.JudgeID]bool
	byFuzzy  map[string]map[id.JudgeID]bool
	byExtID  map[string]id.JudgeID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		judges:  make(map[id.JudgeID]*models.Judge),
		byName:  make(map[string]map[id.JudgeID]bool),
		byFuzzy: make(map[string]map[id.JudgeID]bool),
		byExtID: make(map[string]id.JudgeID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, judge *models.Judge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.judges[judge.ID]; exists {
		return sentinel.ErrConflict
	}
	s.judges[judge.ID] = clone(judge)
	s.index(judge)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, judgeID id.JudgeID) (*models.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.judges[judgeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(j), nil
}

func (s *InMemoryStore) Update(_ context.Context, judge *models.Judge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.judges[judge.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.unindex(prev)
	s.judges[judge.ID] = clone(judge)
	s.index(judge)
	return nil
}

func (s *InMemoryStore) FindByNameKey(_ context.Context, nameKey string) ([]*models.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byName[nameKey]), nil
}

func (s *InMemoryStore) FindByFuzzyKey(_ context.Context, fuzzyKey string) ([]*models.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byFuzzy[fuzzyKey]), nil
}

func (s *InMemoryStore) FindByExternalID(_ context.Context, externalID string) (*models.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	judgeID, ok := s.byExtID[externalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.judges[judgeID]), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Judge, 0, len(s.judges))
	for _, j := range s.judges {
		out = append(out, clone(j))
	}
	return out, nil
}

// index must be called with the write lock held.
func (s *InMemoryStore) index(j *models.Judge) {
	addKey(s.byName, j.NameKey, j.ID)
	addKey(s.byFuzzy, j.FuzzyKey, j.ID)
	for _, v := range j.Variants {
		addKey(s.byName, v.NameKey, j.ID)
		addKey(s.byFuzzy, v.FuzzyKey, j.ID)
	}
	if j.ExternalID != "" {
		s.byExtID[j.ExternalID] = j.ID
	}
}

func (s *InMemoryStore) unindex(j *models.Judge) {
	removeKey(s.byName, j.NameKey, j.ID)
	removeKey(s.byFuzzy, j.FuzzyKey, j.ID)
	for _, v := range j.Variants {
		removeKey(s.byName, v.NameKey, j.ID)
		removeKey(s.byFuzzy, v.FuzzyKey, j.ID)
	}
	if j.ExternalID != "" {
		delete(s.byExtID, j.ExternalID)
	}
}

func (s *InMemoryStore) collect(ids map[id.JudgeID]bool) []*models.Judge {
	out := make([]*models.Judge, 0, len(ids))
	for judgeID := range ids {
		out = append(out, clone(s.judges[judgeID]))
	}
	return out
}

func addKey(idx map[string]map[id.JudgeID]bool, key string, judgeID id.JudgeID) {
	if key == "" {
		return
	}
	set := idx[key]
	if set == nil {
		set = make(map[id.JudgeID]bool)
		idx[key] = set
	}
	set[judgeID] = true
}

func removeKey(idx map[string]map[id.JudgeID]bool, key string, judgeID id.JudgeID) {
	if set := idx[key]; set != nil {
		delete(set, judgeID)
	}
}

func clone(j *models.Judge) *models.Judge {
	cp := *j
	cp.Variants = append([]models.NameVariant(nil), j.Variants...)
	return &cp
}
