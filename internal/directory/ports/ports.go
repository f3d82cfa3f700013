// Package ports defines the shared store interfaces for the directory
// module. They live here because the matcher and the position tracker
// consume them alongside the directory service itself.
package ports

import (
	"context"

	"gavel/internal/directory/models"
	id "gavel/pkg/domain"
)

// JudgeStore persists the judge roster and its lookup indexes.
type JudgeStore interface {
	// Create inserts a new judge. The store rejects duplicate canonical
	// name keys within the same creation call path.
	Create(ctx context.Context, judge *models.Judge) error

	// Get returns sentinel.ErrNotFound when the judge does not exist.
	Get(ctx context.Context, judgeID id.JudgeID) (*models.Judge, error)

	// Update persists roster-level changes (variants, external ID,
	// retirement flags).
	Update(ctx context.Context, judge *models.Judge) error

	// FindByNameKey returns every judge whose canonical name or variant
	// matches the exact name key.
	FindByNameKey(ctx context.Context, nameKey string) ([]*models.Judge, error)

	// FindByFuzzyKey returns every judge in the given phonetic bucket.
	FindByFuzzyKey(ctx context.Context, fuzzyKey string) ([]*models.Judge, error)

	// FindByExternalID returns the judge bound to a provider identifier,
	// or sentinel.ErrNotFound.
	FindByExternalID(ctx context.Context, externalID string) (*models.Judge, error)

	// List returns the full roster.
	List(ctx context.Context) ([]*models.Judge, error)
}

// CourtStore persists courts.
type CourtStore interface {
	Create(ctx context.Context, court *models.Court) error
	Get(ctx context.Context, courtID id.CourtID) (*models.Court, error)
	// FindByJurisdiction returns courts whose jurisdiction key equals or is
	// enclosed by the given key.
	FindByJurisdiction(ctx context.Context, jurisdictionKey string) ([]*models.Court, error)
	List(ctx context.Context) ([]*models.Court, error)
}
