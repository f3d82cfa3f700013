package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gavel/internal/identity"
	"gavel/internal/identity/jurisdiction"
	"gavel/internal/match/models"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

// exactTier: exact name key and exact jurisdiction. A judge "is in" a
// jurisdiction when one of their active positions sits at a court with that
// exact jurisdiction key.
func (s *Service) exactTier(ctx context.Context, _ models.RawCaseRecord, norm identity.NormalizedIdentity) ([]id.JudgeID, error) {
	if norm.NameKey == "" || norm.JurisdictionKey == jurisdiction.Unresolved {
		return nil, nil
	}
	judges, err := s.judges.FindByNameKey(ctx, norm.NameKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "name key lookup")
	}

	var out []id.JudgeID
	for _, j := range judges {
		keys, err := s.activeJurisdictions(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if k == norm.JurisdictionKey {
				out = append(out, j.ID)
				break
			}
		}
	}
	return out, nil
}

// relaxedTier: exact name, jurisdiction widened to enclosing hierarchy
// nodes, nearest first. An unresolved jurisdiction relaxes all the way to
// the root: the name must then be unique across the roster.
func (s *Service) relaxedTier(ctx context.Context, _ models.RawCaseRecord, norm identity.NormalizedIdentity) ([]id.JudgeID, error) {
	if norm.NameKey == "" {
		return nil, nil
	}
	judges, err := s.judges.FindByNameKey(ctx, norm.NameKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "name key lookup")
	}
	if len(judges) == 0 {
		return nil, nil
	}

	if norm.JurisdictionKey == jurisdiction.Unresolved {
		out := make([]id.JudgeID, 0, len(judges))
		for _, j := range judges {
			out = append(out, j.ID)
		}
		return out, nil
	}

	for _, anc := range jurisdiction.Ancestors(norm.JurisdictionKey) {
		var out []id.JudgeID
		for _, j := range judges {
			keys, err := s.activeJurisdictions(ctx, j.ID)
			if err != nil {
				return nil, err
			}
			for _, k := range keys {
				if k == anc || jurisdiction.IsAncestor(anc, k) {
					out = append(out, j.ID)
					break
				}
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, nil
}

// fuzzyTier: phonetic bucket plus edit-distance floor, constrained to
// judges already active at a court on the record's jurisdiction branch. A
// clear best candidate wins; comparable scores stay ambiguous.
func (s *Service) fuzzyTier(ctx context.Context, _ models.RawCaseRecord, norm identity.NormalizedIdentity) ([]id.JudgeID, error) {
	if norm.FuzzyKey == "" || norm.JurisdictionKey == jurisdiction.Unresolved {
		return nil, nil
	}
	judges, err := s.judges.FindByFuzzyKey(ctx, norm.FuzzyKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fuzzy key lookup")
	}

	type scored struct {
		judgeID id.JudgeID
		score   float64
	}
	var candidates []scored
	for _, j := range judges {
		score := identity.Similarity(norm.NameKey, j.NameKey)
		for _, v := range j.Variants {
			if s := identity.Similarity(norm.NameKey, v.NameKey); s > score {
				score = s
			}
		}
		if score < s.fuzzyThreshold {
			continue
		}
		keys, err := s.activeJurisdictions(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		compatible := false
		for _, k := range keys {
			if jurisdiction.Compatible(k, norm.JurisdictionKey) {
				compatible = true
				break
			}
		}
		if compatible {
			candidates = append(candidates, scored{j.ID, score})
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) == 1 || candidates[0].score-candidates[1].score > ambiguityMargin {
		return []id.JudgeID{candidates[0].judgeID}, nil
	}

	// Comparable scores: surface every candidate inside the margin.
	out := []id.JudgeID{candidates[0].judgeID}
	for _, c := range candidates[1:] {
		if candidates[0].score-c.score <= ambiguityMargin {
			out = append(out, c.judgeID)
		}
	}
	return out, nil
}

// externalIDTier: a provider identifier already bound to a judge is
// authoritative and overrides all name evidence.
func (s *Service) externalIDTier(ctx context.Context, rec models.RawCaseRecord, _ identity.NormalizedIdentity) ([]id.JudgeID, error) {
	judge, err := s.externalIDLookup(ctx, rec.ExternalJudgeID)
	if errors.Is(err, errNotBound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []id.JudgeID{judge.ID}, nil
}

// activeJurisdictions returns the jurisdiction keys of the courts where the
// judge currently holds an active position, memoized briefly.
func (s *Service) activeJurisdictions(ctx context.Context, judgeID id.JudgeID) ([]string, error) {
	cacheKey := judgeID.String()
	if cached, ok := s.jurisCache.Get(cacheKey); ok {
		return cached.([]string), nil
	}

	agg, err := s.positions.LoadAggregate(ctx, judgeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load positions for matching")
	}
	var keys []string
	for _, p := range agg.Active() {
		court, err := s.courts.Get(ctx, p.CourtID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal,
				fmt.Sprintf("court %s referenced by position %s", p.CourtID, p.ID))
		}
		keys = append(keys, court.JurisdictionKey)
	}
	s.jurisCache.Set(cacheKey, keys, 0)
	return keys, nil
}
