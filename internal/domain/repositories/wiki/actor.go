package wiki

import (
	"context"

	models "wikicore/internal/domain/models/wiki"
)

// ActorRepository defines data access operations for actors
type ActorRepository interface {
	// GetByID retrieves an actor by ID
	GetByID(ctx context.Context, id string) (*models.Actor, error)

	// Upsert creates or updates an actor's profile and role flags
	Upsert(ctx context.Context, actor *models.Actor) error

	// IncrementEditCount bumps the actor's running edit count
	IncrementEditCount(ctx context.Context, id string) error
}

// CategoryRepository exposes categories. The engine only reads them;
// writes exist for seeding.
type CategoryRepository interface {
	// List returns all categories with member counts, by name
	List(ctx context.Context) ([]models.Category, error)

	// Upsert creates or updates a category by name
	Upsert(ctx context.Context, category *models.Category) error

	// AddDocument adds a document to a category
	AddDocument(ctx context.Context, categoryID, documentID string) error
}

// StatsRepository computes aggregate counters
type StatsRepository interface {
	GetStats(ctx context.Context) (*models.Stats, error)
}
