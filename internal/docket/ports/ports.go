// Package ports defines the docket store interface, consumed by the ingest
// pipeline (writes) and the analytics service (reads).
package ports

import (
	"context"

	"gavel/internal/docket/models"
	id "gavel/pkg/domain"
)

// Store persists cases keyed by their external identifier so re-delivered
// records stay idempotent.
type Store interface {
	// Upsert inserts the case or returns the existing one for the same
	// external ID. The returned flag is true when the case already
	// existed.
	Upsert(ctx context.Context, c *models.Case) (existing *models.Case, found bool, err error)

	// Get returns sentinel.ErrNotFound when absent.
	Get(ctx context.Context, caseID id.CaseID) (*models.Case, error)

	// GetByExternalID returns sentinel.ErrNotFound when absent.
	GetByExternalID(ctx context.Context, externalID string) (*models.Case, error)

	// Resolve links a case to its (judge, position) pair and marks it
	// resolved.
	Resolve(ctx context.Context, caseID id.CaseID, judgeID id.JudgeID, positionID id.PositionID) error

	// MarkAmbiguous parks a case for manual review.
	MarkAmbiguous(ctx context.Context, caseID id.CaseID) error

	// ListResolvedByJudge returns the judge's resolved cases inside the
	// window, ordered by decision date.
	ListResolvedByJudge(ctx context.Context, judgeID id.JudgeID, window models.Window) ([]*models.Case, error)

	// CountResolvedByJudge returns the judge's resolved case count inside
	// the window.
	CountResolvedByJudge(ctx context.Context, judgeID id.JudgeID, window models.Window) (int, error)

	// ListResolvedByJurisdiction returns every resolved case whose
	// jurisdiction equals or falls under the given key, for baseline
	// computation.
	ListResolvedByJurisdiction(ctx context.Context, jurisdictionKey string, window models.Window) ([]*models.Case, error)
}
