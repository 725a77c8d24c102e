package wiki

import (
	"context"
	"fmt"
	"time"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	"wikicore/internal/repository/postgres"
)

const revisionColumns = `id, document_id, revision_number, title, body, edit_summary, created_by, created_at, approved, approved_by, approved_at`

// PostgresRevisionRepository implements the RevisionRepository interface.
// Rows are append-only; Approve is the only UPDATE.
type PostgresRevisionRepository struct {
	repoBase
}

func newRevisionRepository(config *postgres.RepositoryConfig) *PostgresRevisionRepository {
	return &PostgresRevisionRepository{repoBase: newRepoBase(config)}
}

// Create inserts a revision. UNIQUE(document_id, revision_number) turns a
// lost numbering race into a conflict.
func (r *PostgresRevisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.tables.Revisions, revisionColumns)

	_, err := r.executor(ctx).Exec(ctx, query,
		rev.ID,
		rev.DocumentID,
		rev.RevisionNumber,
		rev.Title,
		rev.Body,
		rev.EditSummary,
		rev.CreatedBy,
		rev.CreatedAt,
		rev.Approved,
		rev.ApprovedBy,
		rev.ApprovedAt,
	)
	if err != nil {
		switch {
		case postgres.IsPgDuplicateError(err):
			return &domain.ConflictError{
				Message:      fmt.Sprintf("revision #%d already exists", rev.RevisionNumber),
				ResourceType: "revision",
				ResourceID:   rev.DocumentID,
			}
		case postgres.IsPgForeignKeyError(err):
			return domain.NewNotFound("document", rev.DocumentID)
		}
		return fmt.Errorf("create revision: %w", err)
	}

	return nil
}

// GetByID retrieves a revision by ID
func (r *PostgresRevisionRepository) GetByID(ctx context.Context, id string) (*models.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, revisionColumns, r.tables.Revisions)

	rev, err := scanRevision(r.executor(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("revision", id)
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return rev, nil
}

// GetByNumber retrieves a document's revision by its number
func (r *PostgresRevisionRepository) GetByNumber(ctx context.Context, documentID string, number int) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1 AND revision_number = $2
	`, revisionColumns, r.tables.Revisions)

	rev, err := scanRevision(r.executor(ctx).QueryRow(ctx, query, documentID, number))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("revision", fmt.Sprintf("#%d", number))
		}
		return nil, fmt.Errorf("get revision by number: %w", err)
	}
	return rev, nil
}

// ListByDocument lists a document's revisions, newest first
func (r *PostgresRevisionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1
		ORDER BY revision_number DESC
	`, revisionColumns, r.tables.Revisions)

	rows, err := r.executor(ctx).Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	revisions := make([]models.Revision, 0)
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, *rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}

	return revisions, nil
}

// MaxRevisionNumber returns the highest revision number of a document, 0 if none
func (r *PostgresRevisionRepository) MaxRevisionNumber(ctx context.Context, documentID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(revision_number), 0) FROM %s WHERE document_id = $1
	`, r.tables.Revisions)

	var highest int
	if err := r.executor(ctx).QueryRow(ctx, query, documentID).Scan(&highest); err != nil {
		return 0, fmt.Errorf("max revision number: %w", err)
	}
	return highest, nil
}

// HasApproved reports whether any revision of a document has been approved
func (r *PostgresRevisionRepository) HasApproved(ctx context.Context, documentID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE document_id = $1 AND approved)
	`, r.tables.Revisions)

	var approved bool
	if err := r.executor(ctx).QueryRow(ctx, query, documentID).Scan(&approved); err != nil {
		return false, fmt.Errorf("check approved revisions: %w", err)
	}
	return approved, nil
}

// Approve flips approved to true and stamps the approver
func (r *PostgresRevisionRepository) Approve(ctx context.Context, id, approverID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET approved = TRUE, approved_by = $1, approved_at = $2
		WHERE id = $3 AND approved = FALSE
	`, r.tables.Revisions)

	result, err := r.executor(ctx).Exec(ctx, query, approverID, at, id)
	if err != nil {
		return fmt.Errorf("approve revision: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either missing or already approved.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return &domain.ConflictError{
		Message:      "revision is already approved",
		ResourceType: "revision",
		ResourceID:   id,
	}
}

// ListRecent lists the newest revisions across all documents
func (r *PostgresRevisionRepository) ListRecent(ctx context.Context, limit int) ([]models.RecentChange, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.document_id, r.revision_number, r.title, r.body, r.edit_summary,
		       r.created_by, r.created_at, r.approved, r.approved_by, r.approved_at,
		       d.slug, d.title
		FROM %s r
		JOIN %s d ON d.id = r.document_id
		ORDER BY r.created_at DESC, r.revision_number DESC
		LIMIT $1
	`, r.tables.Revisions, r.tables.Documents)

	rows, err := r.executor(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent changes: %w", err)
	}
	defer rows.Close()

	changes := make([]models.RecentChange, 0)
	for rows.Next() {
		var change models.RecentChange
		err := rows.Scan(
			&change.ID,
			&change.DocumentID,
			&change.RevisionNumber,
			&change.Title,
			&change.Body,
			&change.EditSummary,
			&change.CreatedBy,
			&change.CreatedAt,
			&change.Approved,
			&change.ApprovedBy,
			&change.ApprovedAt,
			&change.DocumentSlug,
			&change.DocumentTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recent change: %w", err)
		}
		changes = append(changes, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent changes: %w", err)
	}

	return changes, nil
}

// DeleteByDocument removes every revision of a document
func (r *PostgresRevisionRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Revisions)

	if _, err := r.executor(ctx).Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}

func scanRevision(row rowScanner) (*models.Revision, error) {
	var rev models.Revision
	err := row.Scan(
		&rev.ID,
		&rev.DocumentID,
		&rev.RevisionNumber,
		&rev.Title,
		&rev.Body,
		&rev.EditSummary,
		&rev.CreatedBy,
		&rev.CreatedAt,
		&rev.Approved,
		&rev.ApprovedBy,
		&rev.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
