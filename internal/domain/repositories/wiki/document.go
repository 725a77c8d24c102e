package wiki

import (
	"context"

	models "wikicore/internal/domain/models/wiki"
)

// DefaultSearchLimit caps substring search results.
const DefaultSearchLimit = 50

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create inserts a document with a caller-assigned ID.
	// Returns a *domain.ConflictError if the slug is taken.
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// GetBySlug retrieves a document by slug
	GetBySlug(ctx context.Context, slug string) (*models.Document, error)

	// Update writes title, slug, body, protection and updated_at.
	// Returns a *domain.ConflictError if the new slug is taken.
	Update(ctx context.Context, doc *models.Document) error

	// Delete removes a document
	Delete(ctx context.Context, id string) error

	// ListSlugs returns every slug in ascending order
	ListSlugs(ctx context.Context) ([]string, error)

	// Search performs a case-insensitive substring match over title and body
	Search(ctx context.Context, query string, limit int) ([]models.Document, error)

	// IncrementViews adds delta to a document's view counter
	IncrementViews(ctx context.Context, id string, delta int64) error
}
