package wiki

import (
	"wikicore/internal/domain/repositories"
)

// Store is the durable relational store the engine talks to. Repository
// calls made with a context returned by ExecTx participate in that
// transaction.
type Store interface {
	repositories.TransactionManager

	Documents() DocumentRepository
	Revisions() RevisionRepository
	PendingChanges() PendingChangeRepository
	Actors() ActorRepository
	Categories() CategoryRepository
	Stats() StatsRepository
}
