// Package memory is an in-process implementation of the wiki store, used by
// tests and by the server when STORE_DRIVER=memory.
//
// A transaction holds the store's write lock for its whole duration and
// keeps an undo journal; if the transaction function fails, the journal is
// replayed in reverse so no partial state survives.
package memory

import (
	"context"
	"sync"
	"time"

	models "wikicore/internal/domain/models/wiki"
	"wikicore/internal/domain/repositories"
	repos "wikicore/internal/domain/repositories/wiki"
)

// Option mutates store configuration.
type Option func(*Store)

// WithClock replaces time.Now for store-assigned timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Store implements repos.Store in memory.
type Store struct {
	clock func() time.Time

	mu         sync.RWMutex
	seq        int64
	documents  map[string]*models.Document
	slugs      map[string]string // slug -> document id
	revisions  map[string]*revisionRecord
	numbers    map[string]map[int]string // document id -> revision number -> revision id
	changes    map[string]*changeRecord
	actors     map[string]*models.Actor
	categories map[string]*models.Category
	members    map[string]map[string]struct{} // category id -> document ids

	documentRepo *documentRepository
	revisionRepo *revisionRepository
	changeRepo   *pendingChangeRepository
	actorRepo    *actorRepository
	categoryRepo *categoryRepository
	statsRepo    *statsRepository
}

type revisionRecord struct {
	models.Revision
	seq int64
}

type changeRecord struct {
	models.PendingChange
	seq int64
}

var _ repos.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore(options ...Option) *Store {
	s := &Store{
		clock:      time.Now,
		documents:  make(map[string]*models.Document),
		slugs:      make(map[string]string),
		revisions:  make(map[string]*revisionRecord),
		numbers:    make(map[string]map[int]string),
		changes:    make(map[string]*changeRecord),
		actors:     make(map[string]*models.Actor),
		categories: make(map[string]*models.Category),
		members:    make(map[string]map[string]struct{}),
	}
	for _, option := range options {
		option(s)
	}
	s.documentRepo = &documentRepository{s: s}
	s.revisionRepo = &revisionRepository{s: s}
	s.changeRepo = &pendingChangeRepository{s: s}
	s.actorRepo = &actorRepository{s: s}
	s.categoryRepo = &categoryRepository{s: s}
	s.statsRepo = &statsRepository{s: s}
	return s
}

func (s *Store) Documents() repos.DocumentRepository          { return s.documentRepo }
func (s *Store) Revisions() repos.RevisionRepository          { return s.revisionRepo }
func (s *Store) PendingChanges() repos.PendingChangeRepository { return s.changeRepo }
func (s *Store) Actors() repos.ActorRepository                { return s.actorRepo }
func (s *Store) Categories() repos.CategoryRepository         { return s.categoryRepo }
func (s *Store) Stats() repos.StatsRepository                 { return s.statsRepo }

type txContextKey struct{}

// tx is the journal of one running transaction.
type tx struct {
	store *Store
	undo  []func()
}

func txFrom(ctx context.Context, s *Store) *tx {
	t, ok := ctx.Value(txContextKey{}).(*tx)
	if !ok || t.store != s {
		return nil
	}
	return t
}

// ExecTx runs fn under the store's write lock. Repository calls must use
// the context passed to fn; calls made with any other context from inside
// fn would deadlock.
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if txFrom(ctx, s) != nil {
		// Nested: join the outer transaction.
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s}
	if err := fn(context.WithValue(ctx, txContextKey{}, t)); err != nil {
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		return err
	}
	return nil
}

// read runs fn under the read lock unless ctx already holds the write lock.
func (s *Store) read(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if txFrom(ctx, s) == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn()
}

// write runs fn under the write lock unless ctx already holds it. fn
// returns the inverse of its mutation, which is journaled inside a
// transaction and discarded outside one.
func (s *Store) write(ctx context.Context, fn func() (func(), error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := txFrom(ctx, s)
	if t == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	undo, err := fn()
	if err != nil {
		return err
	}
	if t != nil && undo != nil {
		t.undo = append(t.undo, undo)
	}
	return nil
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *Store) now(t time.Time) time.Time {
	if t.IsZero() {
		return s.clock().UTC()
	}
	return t
}
