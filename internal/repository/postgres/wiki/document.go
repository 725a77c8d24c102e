package wiki

import (
	"context"
	"fmt"
	"strings"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	"wikicore/internal/repository/postgres"
)

const documentColumns = `id, title, slug, body, created_at, updated_at, created_by, view_count, protected`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	repoBase
}

func newDocumentRepository(config *postgres.RepositoryConfig) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{repoBase: newRepoBase(config)}
}

// Create inserts a document with a caller-assigned ID
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Documents, documentColumns)

	_, err := r.executor(ctx).Exec(ctx, query,
		doc.ID,
		doc.Title,
		doc.Slug,
		doc.Body,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.CreatedBy,
		doc.ViewCount,
		doc.Protected,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.duplicateError(ctx, err, doc)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(r.executor(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("document", id)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// GetBySlug retrieves a document by slug
func (r *PostgresDocumentRepository) GetBySlug(ctx context.Context, slug string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE slug = $1`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(r.executor(ctx).QueryRow(ctx, query, slug))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("page", slug)
		}
		return nil, fmt.Errorf("get document by slug: %w", err)
	}
	return doc, nil
}

// Update writes title, slug, body, protection and updated_at
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, slug = $2, body = $3, protected = $4, updated_at = $5
		WHERE id = $6
	`, r.tables.Documents)

	result, err := r.executor(ctx).Exec(ctx, query,
		doc.Title,
		doc.Slug,
		doc.Body,
		doc.Protected,
		doc.UpdatedAt,
		doc.ID,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.duplicateError(ctx, err, doc)
		}
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("document", doc.ID)
	}

	return nil
}

// Delete removes a document. Category membership goes with it.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	result, err := r.executor(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("document", id)
	}

	return nil
}

// ListSlugs returns every slug in ascending order
func (r *PostgresDocumentRepository) ListSlugs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT slug FROM %s ORDER BY slug ASC`, r.tables.Documents)

	rows, err := r.executor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	defer rows.Close()

	slugs := make([]string, 0)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		slugs = append(slugs, slug)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slugs: %w", err)
	}

	return slugs, nil
}

// Search performs a case-insensitive substring match over title and body
func (r *PostgresDocumentRepository) Search(ctx context.Context, query string, limit int) ([]models.Document, error) {
	sqlQuery := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE title ILIKE $1 ESCAPE '\' OR body ILIKE $1 ESCAPE '\'
		ORDER BY title ASC
		LIMIT $2
	`, documentColumns, r.tables.Documents)

	rows, err := r.executor(ctx).Query(ctx, sqlQuery, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	documents := make([]models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return documents, nil
}

// IncrementViews adds delta to a document's view counter
func (r *PostgresDocumentRepository) IncrementViews(ctx context.Context, id string, delta int64) error {
	query := fmt.Sprintf(`UPDATE %s SET view_count = view_count + $1 WHERE id = $2`, r.tables.Documents)

	result, err := r.executor(ctx).Exec(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("document", id)
	}
	return nil
}

// duplicateError maps a unique violation on the documents table. Only the
// slug constraint names another page; anything else is an ID clash.
func (r *PostgresDocumentRepository) duplicateError(ctx context.Context, err error, doc *models.Document) error {
	if postgres.PgConstraintName(err) == r.tables.DocumentSlugConstraint() {
		return r.slugConflict(ctx, doc.Slug)
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("document %s already exists", doc.ID),
		ResourceType: "document",
		ResourceID:   doc.ID,
	}
}

// slugConflict builds the conflict error for a taken slug, naming the
// document that holds it when it can be found.
func (r *PostgresDocumentRepository) slugConflict(ctx context.Context, slug string) error {
	conflict := &domain.ConflictError{
		Message:      fmt.Sprintf("a page with slug '%s' already exists", slug),
		ResourceType: "document",
	}

	query := fmt.Sprintf(`SELECT id FROM %s WHERE slug = $1`, r.tables.Documents)
	var existingID string
	if err := r.executor(ctx).QueryRow(ctx, query, slug).Scan(&existingID); err == nil {
		conflict.ResourceID = existingID
	}
	return conflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Slug,
		&doc.Body,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.CreatedBy,
		&doc.ViewCount,
		&doc.Protected,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// escapeLike makes LIKE wildcards in user input match literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
