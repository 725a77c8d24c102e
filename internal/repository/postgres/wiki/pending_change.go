package wiki

import (
	"context"
	"fmt"
	"time"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	"wikicore/internal/repository/postgres"
)

const pendingChangeColumns = `id, document_id, revision_id, status, reviewed_by, reviewed_at, review_comment, created_at`

// PostgresPendingChangeRepository implements the PendingChangeRepository interface
type PostgresPendingChangeRepository struct {
	repoBase
}

func newPendingChangeRepository(config *postgres.RepositoryConfig) *PostgresPendingChangeRepository {
	return &PostgresPendingChangeRepository{repoBase: newRepoBase(config)}
}

// Create inserts a pending change
func (r *PostgresPendingChangeRepository) Create(ctx context.Context, change *models.PendingChange) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.PendingChanges, pendingChangeColumns)

	_, err := r.executor(ctx).Exec(ctx, query,
		change.ID,
		change.DocumentID,
		change.RevisionID,
		change.Status,
		change.ReviewedBy,
		change.ReviewedAt,
		change.ReviewComment,
		change.CreatedAt,
	)
	if err != nil {
		switch {
		case postgres.IsPgDuplicateError(err):
			return &domain.ConflictError{
				Message:      "revision already has an unresolved pending change",
				ResourceType: "pending_change",
				ResourceID:   change.RevisionID,
			}
		case postgres.IsPgForeignKeyError(err):
			return domain.NewNotFound("revision", change.RevisionID)
		}
		return fmt.Errorf("create pending change: %w", err)
	}

	return nil
}

// GetByID retrieves a pending change by ID
func (r *PostgresPendingChangeRepository) GetByID(ctx context.Context, id string) (*models.PendingChange, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, pendingChangeColumns, r.tables.PendingChanges)

	var change models.PendingChange
	err := r.executor(ctx).QueryRow(ctx, query, id).Scan(
		&change.ID,
		&change.DocumentID,
		&change.RevisionID,
		&change.Status,
		&change.ReviewedBy,
		&change.ReviewedAt,
		&change.ReviewComment,
		&change.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("pending change", id)
		}
		return nil, fmt.Errorf("get pending change: %w", err)
	}
	return &change, nil
}

// ListPending lists unresolved changes oldest first, joined with the
// document, the revision and its author for display.
func (r *PostgresPendingChangeRepository) ListPending(ctx context.Context) ([]models.PendingChange, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.document_id, p.revision_id, p.status, p.reviewed_by, p.reviewed_at,
		       p.review_comment, p.created_at,
		       d.title, d.slug, r.revision_number, r.edit_summary,
		       COALESCE(a.username, r.created_by)
		FROM %s p
		JOIN %s d ON d.id = p.document_id
		JOIN %s r ON r.id = p.revision_id
		LEFT JOIN %s a ON a.id = r.created_by
		WHERE p.status = $1
		ORDER BY p.created_at ASC, r.revision_number ASC
	`, r.tables.PendingChanges, r.tables.Documents, r.tables.Revisions, r.tables.Actors)

	rows, err := r.executor(ctx).Query(ctx, query, models.ChangeStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending changes: %w", err)
	}
	defer rows.Close()

	changes := make([]models.PendingChange, 0)
	for rows.Next() {
		var change models.PendingChange
		err := rows.Scan(
			&change.ID,
			&change.DocumentID,
			&change.RevisionID,
			&change.Status,
			&change.ReviewedBy,
			&change.ReviewedAt,
			&change.ReviewComment,
			&change.CreatedAt,
			&change.DocumentTitle,
			&change.DocumentSlug,
			&change.RevisionNumber,
			&change.EditSummary,
			&change.Author,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending change: %w", err)
		}
		changes = append(changes, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending changes: %w", err)
	}

	return changes, nil
}

// Resolve moves a change out of pending. The status guard in the WHERE
// clause makes a second resolution a conflict instead of an overwrite.
func (r *PostgresPendingChangeRepository) Resolve(ctx context.Context, id string, status models.ChangeStatus, reviewerID string, at time.Time, comment string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, reviewed_by = $2, reviewed_at = $3, review_comment = $4
		WHERE id = $5 AND status = $6
	`, r.tables.PendingChanges)

	result, err := r.executor(ctx).Exec(ctx, query, status, reviewerID, at, comment, id, models.ChangeStatusPending)
	if err != nil {
		return fmt.Errorf("resolve pending change: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &domain.ConflictError{
		Message:      "pending change was already " + string(current.Status),
		ResourceType: "pending_change",
		ResourceID:   id,
	}
}

// DeleteByDocument removes every pending change of a document
func (r *PostgresPendingChangeRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.PendingChanges)

	if _, err := r.executor(ctx).Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete pending changes: %w", err)
	}
	return nil
}
