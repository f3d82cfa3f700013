// Package retirement runs the scheduled reconciliation pass that infers
// retirement from inactivity. Inference is an explicit sweep over the
// last-activity index, never a side effect of request paths.
package retirement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"gavel/internal/position/metrics"
	"gavel/internal/position/ports"
	id "gavel/pkg/domain"
)

// Tracker is the slice of the position service the sweeper needs.
type Tracker interface {
	InferRetirement(ctx context.Context, judgeID id.JudgeID, now time.Time, horizon time.Duration) (bool, error)
}

type Sweeper struct {
	tracker Tracker
	store   ports.Store
	horizon time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	cron    *cron.Cron
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func New(tracker Tracker, store ports.Store, horizon time.Duration, opts ...Option) (*Sweeper, error) {
	if tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if store == nil {
		return nil, fmt.Errorf("position store is required")
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("retirement horizon must be positive")
	}

	s := &Sweeper{tracker: tracker, store: store, horizon: horizon}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sweep walks every judge with an active position and asks the tracker to
// infer retirement. Cancellable between judges, never mid-transition.
func (s *Sweeper) Sweep(ctx context.Context) error {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active positions: %w", err)
	}

	judges := make(map[id.JudgeID]bool)
	for _, p := range active {
		judges[p.JudgeID] = true
	}

	now := time.Now()
	inferred := 0
	for judgeID := range judges {
		if err := ctx.Err(); err != nil {
			return err
		}
		retired, err := s.tracker.InferRetirement(ctx, judgeID, now, s.horizon)
		if err != nil {
			// One judge's failure must not halt the sweep for the rest.
			if s.logger != nil {
				s.logger.WarnContext(ctx, "retirement inference failed",
					"judge_id", judgeID, "error", err)
			}
			continue
		}
		if retired {
			inferred++
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementSweepRuns()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "retirement sweep complete",
			"judges_checked", len(judges), "retirements_inferred", inferred)
	}
	return nil
}

// Start schedules the sweep with a standard 5-field cron expression and
// blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.cron = cron.New(cron.WithParser(parser))
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.Sweep(ctx); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "retirement sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.cron.Start()
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}
