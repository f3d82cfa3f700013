package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	dirmodels "gavel/internal/directory/models"
	dirports "gavel/internal/directory/ports"
	"gavel/internal/identity"
	"gavel/internal/match/metrics"
	"gavel/internal/match/models"
	posports "gavel/internal/position/ports"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/requestcontext"
)

// DefaultFuzzyThreshold is the minimum normalized name similarity accepted
// by the fuzzy tier.
const DefaultFuzzyThreshold = 0.85

// ambiguityMargin is how close two fuzzy similarity scores must be to count
// as "comparable" and therefore ambiguous.
const ambiguityMargin = 0.05

// Service runs raw records through the fixed-order tier pipeline. It reads
// the roster and position state but never mutates position history; the
// only writes it performs are roster-level (variant additions, candidate
// judge creation).
type Service struct {
	normalizer *identity.Normalizer
	judges     dirports.JudgeStore
	courts     dirports.CourtStore
	positions  posports.Store

	fuzzyThreshold float64
	// jurisCache memoizes each judge's active jurisdiction keys; the fuzzy
	// tier consults it once per candidate instead of rescanning positions
	// per record.
	jurisCache *gocache.Cache

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithFuzzyThreshold(threshold float64) Option {
	return func(s *Service) { s.fuzzyThreshold = threshold }
}

func New(normalizer *identity.Normalizer, judges dirports.JudgeStore, courts dirports.CourtStore, positions posports.Store, opts ...Option) (*Service, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if judges == nil {
		return nil, fmt.Errorf("judge store is required")
	}
	if courts == nil {
		return nil, fmt.Errorf("court store is required")
	}
	if positions == nil {
		return nil, fmt.Errorf("position store is required")
	}

	svc := &Service{
		normalizer:     normalizer,
		judges:         judges,
		courts:         courts,
		positions:      positions,
		fuzzyThreshold: DefaultFuzzyThreshold,
		jurisCache:     gocache.New(5*time.Minute, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Match resolves a record to a judge identity. The tiers run in fixed
// order; a tier yielding exactly one candidate wins, a tier yielding
// several is remembered and the pipeline keeps going in case a stronger
// signal (the external identifier) disambiguates. Multiple comparable
// candidates at the end mean Ambiguous — never a guess.
func (s *Service) Match(ctx context.Context, rec models.RawCaseRecord) (models.Result, error) {
	if err := rec.Validate(); err != nil {
		return models.Result{}, err
	}

	norm := s.normalizer.Normalize(rec.JudgeName, rec.Jurisdiction)

	type tier struct {
		name models.Tier
		run  func(context.Context, models.RawCaseRecord, identity.NormalizedIdentity) ([]id.JudgeID, error)
	}
	tiers := []tier{
		{models.TierExact, s.exactTier},
		{models.TierJurisdictionRelaxed, s.relaxedTier},
		{models.TierFuzzy, s.fuzzyTier},
		{models.TierExternalID, s.externalIDTier},
	}

	var ambiguous []id.JudgeID
	for _, t := range tiers {
		candidates, err := t.run(ctx, rec, norm)
		if err != nil {
			return models.Result{}, err
		}
		switch len(candidates) {
		case 0:
			continue
		case 1:
			result := models.Matched(candidates[0], t.name)
			if t.name == models.TierExternalID {
				s.learnVariant(ctx, candidates[0], rec.JudgeName, norm)
			}
			s.observe(result)
			return result, nil
		default:
			ambiguous = candidates
		}
	}

	if len(ambiguous) > 0 {
		result := models.Ambiguous(ambiguous)
		s.observe(result)
		return result, nil
	}
	result := models.NoMatch()
	s.observe(result)
	return result, nil
}

// CreateCandidate creates a judge from an unmatched record. Callers gate
// this behind an explicit allow-create decision; it is never implicit in
// Match, so noisy input cannot fabricate judges silently.
func (s *Service) CreateCandidate(ctx context.Context, rec models.RawCaseRecord) (*dirmodels.Judge, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	nameKey, fuzzyKey := identity.NormalizeName(rec.JudgeName)
	if nameKey == "" {
		return nil, dErrors.New(dErrors.CodeUpstreamData, "judge name normalizes to nothing")
	}

	now := requestcontext.Now(ctx)
	judge := &dirmodels.Judge{
		ID:            id.NewJudgeID(),
		CanonicalName: rec.JudgeName,
		NameKey:       nameKey,
		FuzzyKey:      fuzzyKey,
		ExternalID:    rec.ExternalJudgeID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.judges.Create(ctx, judge); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create candidate judge")
	}
	if s.metrics != nil {
		s.metrics.IncrementCandidateJudges()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "candidate judge created",
			"judge_id", judge.ID, "name", rec.JudgeName)
	}
	return judge, nil
}

func (s *Service) observe(r models.Result) {
	if s.metrics != nil {
		s.metrics.ObserveOutcome(string(r.Kind), string(r.Tier))
	}
}

// learnVariant records a new name spelling on a judge matched through the
// external identifier. Name changes are real; the binding wins, and the
// roster learns the new spelling as a variant.
func (s *Service) learnVariant(ctx context.Context, judgeID id.JudgeID, rawName string, norm identity.NormalizedIdentity) {
	if norm.NameKey == "" {
		return
	}
	judge, err := s.judges.Get(ctx, judgeID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "variant lookup failed", "judge_id", judgeID, "error", err)
		}
		return
	}
	if judge.HasVariantKey(norm.NameKey) {
		return
	}
	judge.Variants = append(judge.Variants, dirmodels.NameVariant{
		Name:     rawName,
		NameKey:  norm.NameKey,
		FuzzyKey: norm.FuzzyKey,
		AddedAt:  requestcontext.Now(ctx),
		Source:   string(models.TierExternalID),
	})
	judge.UpdatedAt = requestcontext.Now(ctx)
	if err := s.judges.Update(ctx, judge); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "variant addition failed", "judge_id", judgeID, "error", err)
		}
		return
	}
	if s.metrics != nil {
		s.metrics.IncrementVariantAdditions()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "name variant added",
			"judge_id", judgeID, "variant", rawName)
	}
}

var errNotBound = errors.New("not bound")

// externalIDLookup resolves a provider judge ID, tolerating absence.
func (s *Service) externalIDLookup(ctx context.Context, externalID string) (*dirmodels.Judge, error) {
	if externalID == "" {
		return nil, errNotBound
	}
	judge, err := s.judges.FindByExternalID(ctx, externalID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, errNotBound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "external id lookup")
	}
	return judge, nil
}
