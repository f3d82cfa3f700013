// Package service computes bias/outcome profiles. A profile is a read model
// over resolved cases; it never mutates positions or the docket, and every
// computation lands as a new append-only snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"gavel/internal/analytics/confidence"
	"gavel/internal/analytics/metrics"
	"gavel/internal/analytics/models"
	"gavel/internal/analytics/ports"
	dirports "gavel/internal/directory/ports"
	docketmodels "gavel/internal/docket/models"
	docketports "gavel/internal/docket/ports"
	"gavel/internal/identity/jurisdiction"
	posports "gavel/internal/position/ports"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/requestcontext"
)

// maxGenerationRetries bounds how often one Analyze call restarts after a
// concurrent position change before giving up.
const maxGenerationRetries = 3

// defaultRecomputeConcurrency caps the errgroup fan-out of RecomputeAll.
const defaultRecomputeConcurrency = 4

// Publisher receives freshly computed snapshots and applies the publication
// gate.
type Publisher interface {
	Publish(ctx context.Context, profile *models.BiasProfile) error
}

type Service struct {
	docket    docketports.Store
	positions posports.Store
	snapshots ports.SnapshotStore
	judges    dirports.JudgeStore
	scorer    *confidence.Scorer

	publisher   Publisher
	concurrency int

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

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithRecomputeConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

func New(docket docketports.Store, positions posports.Store, snapshots ports.SnapshotStore, judges dirports.JudgeStore, scorer *confidence.Scorer, opts ...Option) (*Service, error) {
	if docket == nil {
		return nil, fmt.Errorf("docket store is required")
	}
	if positions == nil {
		return nil, fmt.Errorf("position store is required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if judges == nil {
		return nil, fmt.Errorf("judge store is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("confidence scorer is required")
	}

	svc := &Service{
		docket:      docket,
		positions:   positions,
		snapshots:   snapshots,
		judges:      judges,
		scorer:      scorer,
		concurrency: defaultRecomputeConcurrency,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Analyze computes a new snapshot of the judge's outcome pattern over the
// window, appends it, and hands it to the publisher. The read is pinned to
// one position generation: if the generation moves between the start and end
// of the read, the computation restarts.
func (s *Service) Analyze(ctx context.Context, judgeID id.JudgeID, window docketmodels.Window) (*models.BiasProfile, error) {
	var profile *models.BiasProfile
	for attempt := 0; ; attempt++ {
		gen, err := s.positions.Generation(ctx, judgeID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read position generation")
		}

		profile, err = s.compute(ctx, judgeID, window, gen)
		if err != nil {
			return nil, err
		}

		after, err := s.positions.Generation(ctx, judgeID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "re-read position generation")
		}
		if after == gen {
			break
		}
		if s.metrics != nil {
			s.metrics.GenerationRetries.Inc()
		}
		if attempt+1 >= maxGenerationRetries {
			return nil, dErrors.Newf(dErrors.CodeConflict,
				"position history for judge %s kept changing during analysis", judgeID)
		}
	}

	if err := s.appendVersioned(ctx, profile); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ProfilesComputed.WithLabelValues(string(profile.SampleTier)).Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "bias profile computed",
			"judge_id", judgeID, "version", profile.Version,
			"sample_size", profile.SampleSize, "tier", profile.SampleTier)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, profile); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "publish profile")
		}
	}
	return profile, nil
}

func (s *Service) compute(ctx context.Context, judgeID id.JudgeID, window docketmodels.Window, gen uint64) (*models.BiasProfile, error) {
	cases, err := s.docket.ListResolvedByJudge(ctx, judgeID, window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list judge cases")
	}

	var baseline []*docketmodels.Case
	if key := baselineKey(cases); key != "" {
		baseline, err = s.docket.ListResolvedByJurisdiction(ctx, key, window)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list baseline cases")
		}
	}

	buckets := computeBuckets(cases, baseline)
	score := s.scorer.Score(len(cases), widestInterval(buckets))

	profile := &models.BiasProfile{
		ID:         id.NewSnapshotID(),
		JudgeID:    judgeID,
		Window:     window,
		Generation: gen,
		SampleSize: len(cases),
		SampleTier: score.Tier,
		Buckets:    buckets,
		ComputedAt: requestcontext.Now(ctx),
	}
	// Too few cases to distinguish pattern from noise: no score at all.
	if score.Tier != confidence.TierInsufficient {
		profile.PatternScore = patternScore(buckets)
	}
	return profile, nil
}

func (s *Service) appendVersioned(ctx context.Context, profile *models.BiasProfile) error {
	prev, err := s.snapshots.Latest(ctx, profile.JudgeID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		profile.Version = 1
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "read latest snapshot")
	default:
		profile.Version = prev.Version + 1
	}
	if err := s.snapshots.Append(ctx, profile); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "append snapshot")
	}
	return nil
}

// RecomputeAll recomputes every judge's profile over the window, fanning out
// across judges. Cancellation stops scheduling new judges; per-judge
// conflicts abort the run so the caller can retry the batch.
func (s *Service) RecomputeAll(ctx context.Context, window docketmodels.Window) error {
	judges, err := s.judges.List(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list judges")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, judge := range judges {
		g.Go(func() error {
			_, err := s.Analyze(ctx, judge.ID, window)
			return err
		})
	}
	return g.Wait()
}

// Latest returns the judge's most recent snapshot regardless of sample tier.
func (s *Service) Latest(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error) {
	profile, err := s.snapshots.Latest(ctx, judgeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no profile computed yet")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read latest snapshot")
	}
	return profile, nil
}

// baselineKey picks the jurisdiction whose population the judge is compared
// against: the root of the most frequent resolvable jurisdiction among the
// judge's own cases. Unresolved cases cannot anchor a baseline.
func baselineKey(cases []*docketmodels.Case) string {
	counts := make(map[string]int)
	for _, c := range cases {
		if c.JurisdictionKey == "" || c.JurisdictionKey == jurisdiction.Unresolved {
			continue
		}
		counts[c.JurisdictionKey]++
	}
	var best string
	var bestCount int
	for key, n := range counts {
		if n > bestCount || (n == bestCount && key < best) {
			best, bestCount = key, n
		}
	}
	if best == "" {
		return ""
	}
	if i := strings.IndexByte(best, '/'); i > 0 {
		return best[:i]
	}
	return best
}
