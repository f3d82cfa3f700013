package store

import (
	"context"
	"sync"
	"time"

	"gavel/internal/position/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

type aggregateRecord struct {
	generation   uint64
	positions    []*models.Position
	lastActivity time.Time
}

// InMemoryStore keeps per-judge aggregates with generation-checked commits.
// It is the unit-test substrate; the Postgres store mirrors the same
// semantics with a generations table.
type InMemoryStore struct {
	mu     sync.RWMutex
	judges map[id.JudgeID]*aggregateRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{judges: make(map[id.JudgeID]*aggregateRecord)}
}

func (s *InMemoryStore) LoadAggregate(_ context.Context, judgeID id.JudgeID) (*models.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.judges[judgeID]
	if rec == nil {
		return &models.Aggregate{JudgeID: judgeID}, nil
	}
	return &models.Aggregate{
		JudgeID:      judgeID,
		Generation:   rec.generation,
		Positions:    clonePositions(rec.positions),
		LastActivity: rec.lastActivity,
	}, nil
}

func (s *InMemoryStore) CommitAggregate(_ context.Context, agg *models.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.judges[agg.JudgeID]
	current := uint64(0)
	if rec != nil {
		current = rec.generation
	}
	if current != agg.Generation {
		return sentinel.ErrConflict
	}
	if rec == nil {
		rec = &aggregateRecord{}
		s.judges[agg.JudgeID] = rec
	}
	rec.positions = clonePositions(agg.Positions)
	rec.generation = current + 1
	return nil
}

func (s *InMemoryStore) Generation(_ context.Context, judgeID id.JudgeID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec := s.judges[judgeID]; rec != nil {
		return rec.generation, nil
	}
	return 0, nil
}

func (s *InMemoryStore) RecordActivity(_ context.Context, judgeID id.JudgeID, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.judges[judgeID]
	if rec == nil {
		rec = &aggregateRecord{}
		s.judges[judgeID] = rec
	}
	if t.After(rec.lastActivity) {
		rec.lastActivity = t
	}
	return nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Position
	for _, rec := range s.judges {
		for _, p := range rec.positions {
			if p.IsActive() {
				cp := *p
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (s *InMemoryStore) ActiveByCourt(_ context.Context, courtID id.CourtID) ([]*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Position
	for _, rec := range s.judges {
		for _, p := range rec.positions {
			if p.IsActive() && p.CourtID == courtID {
				cp := *p
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func clonePositions(in []*models.Position) []*models.Position {
	out := make([]*models.Position, len(in))
	for i, p := range in {
		cp := *p
		if p.End != nil {
			end := *p.End
			cp.End = &end
		}
		out[i] = &cp
	}
	return out
}
