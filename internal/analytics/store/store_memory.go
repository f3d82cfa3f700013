package store

import (
	"context"
	"sort"
	"sync"

	"gavel/internal/analytics/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// InMemoryStore keeps snapshots per judge, append-only.
type InMemoryStore struct {
	mu      sync.RWMutex
	byJudge map[id.JudgeID][]*models.BiasProfile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byJudge: make(map[id.JudgeID][]*models.BiasProfile)}
}

func (s *InMemoryStore) Append(_ context.Context, profile *models.BiasProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneProfile(profile)
	s.byJudge[profile.JudgeID] = append(s.byJudge[profile.JudgeID], cp)
	return nil
}

func (s *InMemoryStore) Latest(_ context.Context, judgeID id.JudgeID) (*models.BiasProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.byJudge[judgeID]
	if len(snaps) == 0 {
		return nil, sentinel.ErrNotFound
	}
	best := snaps[0]
	for _, p := range snaps[1:] {
		if p.Version > best.Version {
			best = p
		}
	}
	return cloneProfile(best), nil
}

func (s *InMemoryStore) LatestPublishable(_ context.Context, judgeID id.JudgeID) (*models.BiasProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.BiasProfile
	for _, p := range s.byJudge[judgeID] {
		if !p.Publishable() {
			continue
		}
		if best == nil || p.Version > best.Version {
			best = p
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneProfile(best), nil
}

func (s *InMemoryStore) ListByJudge(_ context.Context, judgeID id.JudgeID) ([]*models.BiasProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.byJudge[judgeID]
	out := make([]*models.BiasProfile, 0, len(snaps))
	for _, p := range snaps {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func cloneProfile(p *models.BiasProfile) *models.BiasProfile {
	cp := *p
	if p.PatternScore != nil {
		score := *p.PatternScore
		cp.PatternScore = &score
	}
	cp.Buckets = append([]models.Bucket(nil), p.Buckets...)
	return &cp
}
