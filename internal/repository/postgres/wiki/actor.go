package wiki

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	"wikicore/internal/repository/postgres"
)

// PostgresActorRepository implements the ActorRepository interface
type PostgresActorRepository struct {
	repoBase
}

func newActorRepository(config *postgres.RepositoryConfig) *PostgresActorRepository {
	return &PostgresActorRepository{repoBase: newRepoBase(config)}
}

// GetByID retrieves an actor by ID
func (r *PostgresActorRepository) GetByID(ctx context.Context, id string) (*models.Actor, error) {
	query := fmt.Sprintf(`
		SELECT id, username, display_name, is_admin, is_moderator, bio, edit_count
		FROM %s
		WHERE id = $1
	`, r.tables.Actors)

	var actor models.Actor
	err := r.executor(ctx).QueryRow(ctx, query, id).Scan(
		&actor.ID,
		&actor.Username,
		&actor.DisplayName,
		&actor.IsAdmin,
		&actor.IsModerator,
		&actor.Bio,
		&actor.EditCount,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("actor", id)
		}
		return nil, fmt.Errorf("get actor: %w", err)
	}
	return &actor, nil
}

// Upsert creates or updates an actor's profile and role flags. The edit
// count is never overwritten.
func (r *PostgresActorRepository) Upsert(ctx context.Context, actor *models.Actor) error {
	if actor.ID == "" {
		actor.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, display_name, is_admin, is_moderator, bio)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			is_admin = EXCLUDED.is_admin,
			is_moderator = EXCLUDED.is_moderator,
			bio = EXCLUDED.bio
		RETURNING edit_count
	`, r.tables.Actors)

	err := r.executor(ctx).QueryRow(ctx, query,
		actor.ID,
		actor.Username,
		actor.DisplayName,
		actor.IsAdmin,
		actor.IsModerator,
		actor.Bio,
	).Scan(&actor.EditCount)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("username '%s' is taken", actor.Username),
				ResourceType: "actor",
			}
		}
		return fmt.Errorf("upsert actor: %w", err)
	}
	return nil
}

// IncrementEditCount bumps the actor's running edit count
func (r *PostgresActorRepository) IncrementEditCount(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET edit_count = edit_count + 1 WHERE id = $1`, r.tables.Actors)

	result, err := r.executor(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment edit count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("actor", id)
	}
	return nil
}

// PostgresCategoryRepository implements the CategoryRepository interface
type PostgresCategoryRepository struct {
	repoBase
}

func newCategoryRepository(config *postgres.RepositoryConfig) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{repoBase: newRepoBase(config)}
}

// List returns all categories with member counts, by name
func (r *PostgresCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.name, c.description, COUNT(dc.document_id)
		FROM %s c
		LEFT JOIN %s dc ON dc.category_id = c.id
		GROUP BY c.id, c.name, c.description
		ORDER BY c.name ASC
	`, r.tables.Categories, r.tables.DocumentCategories)

	rows, err := r.executor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.MemberCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// Upsert creates or updates a category by name
func (r *PostgresCategoryRepository) Upsert(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`, r.tables.Categories)

	err := r.executor(ctx).QueryRow(ctx, query, category.ID, category.Name, category.Description).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

// AddDocument adds a document to a category
func (r *PostgresCategoryRepository) AddDocument(ctx context.Context, categoryID, documentID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (category_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, r.tables.DocumentCategories)

	if _, err := r.executor(ctx).Exec(ctx, query, categoryID, documentID); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("category or document", categoryID+"/"+documentID)
		}
		return fmt.Errorf("add document to category: %w", err)
	}
	return nil
}

// PostgresStatsRepository implements the StatsRepository interface
type PostgresStatsRepository struct {
	repoBase
}

func newStatsRepository(config *postgres.RepositoryConfig) *PostgresStatsRepository {
	return &PostgresStatsRepository{repoBase: newRepoBase(config)}
}

// GetStats computes all counters in one round trip
func (r *PostgresStatsRepository) GetStats(ctx context.Context) (*models.Stats, error) {
	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s),
			(SELECT COUNT(*) FROM %s),
			(SELECT COUNT(*) FROM %s WHERE status = $1),
			(SELECT COUNT(*) FROM %s),
			(SELECT COALESCE(SUM(view_count), 0)::BIGINT FROM %s)
	`, r.tables.Documents, r.tables.Revisions, r.tables.PendingChanges, r.tables.Actors, r.tables.Documents)

	var stats models.Stats
	err := r.executor(ctx).QueryRow(ctx, query, models.ChangeStatusPending).Scan(
		&stats.Documents,
		&stats.Revisions,
		&stats.PendingChanges,
		&stats.Actors,
		&stats.TotalViews,
	)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}
