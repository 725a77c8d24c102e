package wiki

import (
	"context"
	"time"

	models "wikicore/internal/domain/models/wiki"
)

// PendingChangeRepository defines data access operations for the review queue
type PendingChangeRepository interface {
	// Create inserts a pending change
	Create(ctx context.Context, change *models.PendingChange) error

	// GetByID retrieves a pending change by ID
	GetByID(ctx context.Context, id string) (*models.PendingChange, error)

	// ListPending lists unresolved changes oldest first, with display fields populated
	ListPending(ctx context.Context) ([]models.PendingChange, error)

	// Resolve moves a change from pending to status. Returns a
	// *domain.ConflictError if the change is no longer pending.
	Resolve(ctx context.Context, id string, status models.ChangeStatus, reviewerID string, at time.Time, comment string) error

	// DeleteByDocument removes every pending change of a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
