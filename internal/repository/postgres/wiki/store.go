// Package wiki implements the wiki store on PostgreSQL. Every repository
// runs its statements on the transaction carried by the context, if any.
package wiki

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"wikicore/internal/domain/repositories"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
	"wikicore/internal/repository/postgres"
)

// Store implements wikiRepo.Store on a pgx pool
type Store struct {
	repositories.TransactionManager

	documents      *PostgresDocumentRepository
	revisions      *PostgresRevisionRepository
	pendingChanges *PostgresPendingChangeRepository
	actors         *PostgresActorRepository
	categories     *PostgresCategoryRepository
	stats          *PostgresStatsRepository
}

// NewStore wires every wiki repository to the same pool and tables
func NewStore(config *postgres.RepositoryConfig) *Store {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		TransactionManager: postgres.NewTransactionManager(config.Pool, config.Logger),
		documents:          newDocumentRepository(config),
		revisions:          newRevisionRepository(config),
		pendingChanges:     newPendingChangeRepository(config),
		actors:             newActorRepository(config),
		categories:         newCategoryRepository(config),
		stats:              newStatsRepository(config),
	}
}

func (s *Store) Documents() wikiRepo.DocumentRepository           { return s.documents }
func (s *Store) Revisions() wikiRepo.RevisionRepository           { return s.revisions }
func (s *Store) PendingChanges() wikiRepo.PendingChangeRepository { return s.pendingChanges }
func (s *Store) Actors() wikiRepo.ActorRepository                 { return s.actors }
func (s *Store) Categories() wikiRepo.CategoryRepository          { return s.categories }
func (s *Store) Stats() wikiRepo.StatsRepository                  { return s.stats }

// repoBase carries what every repository needs
type repoBase struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

func newRepoBase(config *postgres.RepositoryConfig) repoBase {
	return repoBase{pool: config.Pool, tables: config.Tables, logger: config.Logger}
}

func (b repoBase) executor(ctx context.Context) repositories.DBTX {
	return postgres.GetExecutor(ctx, b.pool)
}
