package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"wikicore/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents          string
	Revisions          string
	PendingChanges     string
	Actors             string
	Categories         string
	DocumentCategories string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents:          fmt.Sprintf("%sdocuments", prefix),
		Revisions:          fmt.Sprintf("%srevisions", prefix),
		PendingChanges:     fmt.Sprintf("%spending_changes", prefix),
		Actors:             fmt.Sprintf("%sactors", prefix),
		Categories:         fmt.Sprintf("%scategories", prefix),
		DocumentCategories: fmt.Sprintf("%sdocument_categories", prefix),
	}
}

// DocumentSlugConstraint names the unique constraint on document slugs.
func (t *TableNames) DocumentSlugConstraint() string {
	return t.Documents + "_slug_key"
}

// All returns every table, parents before children.
func (t *TableNames) All() []string {
	return []string{t.Actors, t.Documents, t.Revisions, t.PendingChanges, t.Categories, t.DocumentCategories}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Port 6543 is the transaction-mode PgBouncer port of hosted Postgres
// offerings, which cannot hold prepared statements. On that port the pool
// switches to QueryExecModeCacheDescribe unless the connection string sets
// default_query_exec_mode explicitly.
//
// Table prefixes are interpolated with fmt.Sprintf before statements reach
// the server, so each environment gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
// This enables repositories to automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	// Check if there's a transaction in the context
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	// No transaction, use the pool
	return pool
}
