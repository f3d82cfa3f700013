// Package ports defines the review queue store interface.
package ports

import (
	"context"

	"gavel/internal/review/models"
	id "gavel/pkg/domain"
)

// Store persists review entries.
type Store interface {
	Add(ctx context.Context, entry *models.Entry) error

	// Get returns sentinel.ErrNotFound when absent.
	Get(ctx context.Context, reviewID id.ReviewID) (*models.Entry, error)

	// ListOpen returns open entries, oldest first.
	ListOpen(ctx context.Context) ([]*models.Entry, error)

	// Close moves an entry out of the open state. Closing a non-open entry
	// fails with sentinel.ErrInvalidState.
	Close(ctx context.Context, reviewID id.ReviewID, status models.Status, resolution string) error
}
