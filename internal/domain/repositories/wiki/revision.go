package wiki

import (
	"context"
	"time"

	models "wikicore/internal/domain/models/wiki"
)

// RevisionRepository defines data access operations for revisions.
// Revisions are append-only; Approve is the only mutation.
type RevisionRepository interface {
	// Create inserts a revision. Returns a *domain.ConflictError with
	// ResourceType "revision" if (document_id, revision_number) is taken.
	Create(ctx context.Context, rev *models.Revision) error

	// GetByID retrieves a revision by ID
	GetByID(ctx context.Context, id string) (*models.Revision, error)

	// GetByNumber retrieves a document's revision by its number
	GetByNumber(ctx context.Context, documentID string, number int) (*models.Revision, error)

	// ListByDocument lists a document's revisions, newest first
	ListByDocument(ctx context.Context, documentID string) ([]models.Revision, error)

	// MaxRevisionNumber returns the highest revision number of a document, 0 if none
	MaxRevisionNumber(ctx context.Context, documentID string) (int, error)

	// HasApproved reports whether any revision of a document has been approved
	HasApproved(ctx context.Context, documentID string) (bool, error)

	// Approve flips approved to true and stamps the approver.
	// Returns a *domain.ConflictError if the revision is already approved.
	Approve(ctx context.Context, id, approverID string, at time.Time) error

	// ListRecent lists the newest revisions across all documents
	ListRecent(ctx context.Context, limit int) ([]models.RecentChange, error)

	// DeleteByDocument removes every revision of a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
