// Package ports defines the analytics snapshot store interface.
package ports

import (
	"context"

	"gavel/internal/analytics/models"
	id "gavel/pkg/domain"
)

// SnapshotStore persists bias profiles append-only. Snapshots are never
// updated or deleted; corrections arrive as new versions.
type SnapshotStore interface {
	// Append stores a new snapshot. The caller assigns Version.
	Append(ctx context.Context, profile *models.BiasProfile) error

	// Latest returns the judge's highest-version snapshot regardless of
	// sample tier, or sentinel.ErrNotFound.
	Latest(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error)

	// LatestPublishable returns the judge's highest-version snapshot whose
	// tier clears the publication gate, or sentinel.ErrNotFound.
	LatestPublishable(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error)

	// ListByJudge returns all of a judge's snapshots, newest first.
	ListByJudge(ctx context.Context, judgeID id.JudgeID) ([]*models.BiasProfile, error)
}
