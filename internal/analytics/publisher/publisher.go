// Package publisher applies the publication gate to bias profiles and keeps
// a cache of the published ones so dashboard reads never touch the snapshot
// store on the hot path.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gavel/internal/analytics/metrics"
	"gavel/internal/analytics/models"
	"gavel/internal/analytics/ports"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
)

// DefaultTTL bounds how stale a cached profile may get before a read falls
// through to the store.
const DefaultTTL = 15 * time.Minute

// Cache is the published-profile cache. Misses are (nil, nil), not errors.
type Cache interface {
	Get(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error)
	Set(ctx context.Context, profile *models.BiasProfile, ttl time.Duration) error
	Delete(ctx context.Context, judgeID id.JudgeID) error
}

type Publisher struct {
	snapshots ports.SnapshotStore
	cache     Cache
	ttl       time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) { p.ttl = ttl }
}

// New builds a publisher. cache may be nil, in which case every read falls
// through to the snapshot store.
func New(snapshots ports.SnapshotStore, cache Cache, opts ...Option) (*Publisher, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	p := &Publisher{
		snapshots: snapshots,
		cache:     cache,
		ttl:       DefaultTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish surfaces a snapshot if its sample tier clears the gate. Withheld
// snapshots leave any previously published profile in place: a judge's
// published history only moves forward.
func (p *Publisher) Publish(ctx context.Context, profile *models.BiasProfile) error {
	if !profile.Publishable() {
		if p.metrics != nil {
			p.metrics.ProfilesWithheld.Inc()
		}
		if p.logger != nil {
			p.logger.InfoContext(ctx, "bias profile withheld",
				"judge_id", profile.JudgeID, "sample_size", profile.SampleSize)
		}
		return nil
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, profile, p.ttl); err != nil {
			// The store still has the snapshot; a cold cache is a slow
			// read, not a lost publication.
			if p.logger != nil {
				p.logger.WarnContext(ctx, "profile cache write failed",
					"judge_id", profile.JudgeID, "error", err)
			}
		}
	}
	if p.metrics != nil {
		p.metrics.ProfilesPublished.Inc()
	}
	return nil
}

// Published returns the judge's latest published profile. A judge with only
// insufficient snapshots gets CodeNotFound: "no data yet" is distinguishable
// from a published near-baseline score.
func (p *Publisher) Published(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error) {
	if p.cache != nil {
		cached, err := p.cache.Get(ctx, judgeID)
		if err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "profile cache read failed",
				"judge_id", judgeID, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	profile, err := p.snapshots.LatestPublishable(ctx, judgeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no published profile for judge")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read published profile")
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, profile, p.ttl); err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "profile cache backfill failed",
				"judge_id", judgeID, "error", err)
		}
	}
	return profile, nil
}
