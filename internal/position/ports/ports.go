// Package ports defines the shared interfaces for the position module.
// The tracker service, the retirement sweeper, and the analytics snapshot
// reader all consume the store through these.
package ports

import (
	"context"
	"time"

	"gavel/internal/position/models"
	"gavel/internal/position/validator"
	id "gavel/pkg/domain"
)

// Store persists per-judge position aggregates with optimistic versioning.
type Store interface {
	// LoadAggregate returns the judge's full history and current
	// generation. A judge with no positions yet yields an empty aggregate
	// at generation zero, not an error.
	LoadAggregate(ctx context.Context, judgeID id.JudgeID) (*models.Aggregate, error)

	// CommitAggregate writes the aggregate back. The stored generation
	// must equal agg.Generation or the commit fails with
	// sentinel.ErrConflict and no partial write; on success the stored
	// generation advances by one.
	CommitAggregate(ctx context.Context, agg *models.Aggregate) error

	// Generation returns the judge's current position generation without
	// loading the history.
	Generation(ctx context.Context, judgeID id.JudgeID) (uint64, error)

	// RecordActivity advances the judge's last-activity watermark. Older
	// timestamps never move it backwards.
	RecordActivity(ctx context.Context, judgeID id.JudgeID, t time.Time) error

	// ListActive returns every active position across all judges.
	ListActive(ctx context.Context) ([]*models.Position, error)

	// ActiveByCourt returns every active position at one court.
	ActiveByCourt(ctx context.Context, courtID id.CourtID) ([]*models.Position, error)
}

// ViolationSink receives assignment rejections for manual review. The
// tracker never drops a rejection silently.
type ViolationSink interface {
	ReportViolations(ctx context.Context, judgeID id.JudgeID, caseRef string, violations []validator.Violation) error
}
