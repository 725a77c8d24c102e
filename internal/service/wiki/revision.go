package wiki

import (
	"context"
	"sync"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
)

// RevisionManager hands out per-document revision numbers. Holding a
// Reservation serializes writers of one document inside this process; the
// store's unique (document_id, revision_number) constraint catches
// everything else, including other processes.
type RevisionManager struct {
	revisions wikiRepo.RevisionRepository

	mu    sync.Mutex
	locks map[string]*documentLock
	last  map[string]int // advisory: last number this process committed
}

type documentLock struct {
	sem  chan struct{}
	refs int
}

// NewRevisionManager creates a revision manager over repo.
func NewRevisionManager(repo wikiRepo.RevisionRepository) *RevisionManager {
	return &RevisionManager{
		revisions: repo,
		locks:     make(map[string]*documentLock),
		last:      make(map[string]int),
	}
}

// Reservation is a revision number held under the document lock. Exactly
// one of Commit or Release must end it; Release after Commit is a no-op,
// so it can always be deferred.
type Reservation struct {
	Number int

	manager    *RevisionManager
	documentID string
	unlock     func()
	done       bool
}

// Reserve blocks until the document lock is free (or ctx ends) and returns
// the next revision number. The cached last number is used when this
// process wrote the latest revision; otherwise the store is asked.
func (m *RevisionManager) Reserve(ctx context.Context, documentID string) (*Reservation, error) {
	unlock, err := m.Lock(ctx, documentID)
	if err != nil {
		return nil, err
	}

	res := &Reservation{manager: m, documentID: documentID, unlock: unlock}

	m.mu.Lock()
	last, known := m.last[documentID]
	m.mu.Unlock()

	if !known {
		highest, err := m.revisions.MaxRevisionNumber(ctx, documentID)
		if err != nil {
			res.Release()
			return nil, domain.AsStorage("read max revision number", err)
		}
		last = highest
	}

	res.Number = last + 1
	return res, nil
}

// Lock takes the document lock without reserving a number, for writers
// that change a document without adding a revision. The returned func
// unlocks; calling it more than once is harmless.
func (m *RevisionManager) Lock(ctx context.Context, documentID string) (func(), error) {
	lock := m.acquire(documentID)
	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		m.unref(documentID, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			m.unref(documentID, lock)
		})
	}, nil
}

// CreateRevision persists rev under the reserved number. It never touches
// the live document.
func (m *RevisionManager) CreateRevision(ctx context.Context, res *Reservation, rev *models.Revision) error {
	rev.DocumentID = res.documentID
	rev.RevisionNumber = res.Number
	if err := m.revisions.Create(ctx, rev); err != nil {
		return domain.AsStorage("create revision", err)
	}
	return nil
}

// Forget drops the cached number so the next reservation counts from the store.
func (m *RevisionManager) Forget(documentID string) {
	m.mu.Lock()
	delete(m.last, documentID)
	m.mu.Unlock()
}

// Commit records the reserved number as the document's latest and unlocks.
func (r *Reservation) Commit() {
	if r.done {
		return
	}
	r.done = true

	r.manager.mu.Lock()
	r.manager.last[r.documentID] = r.Number
	r.manager.mu.Unlock()

	r.unlock()
}

// Release abandons the reservation. The cached number is dropped, since a
// failed write leaves it unknown whether the store moved on.
func (r *Reservation) Release() {
	if r.done {
		return
	}
	r.done = true
	r.manager.Forget(r.documentID)
	r.unlock()
}

func (m *RevisionManager) acquire(documentID string) *documentLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[documentID]
	if !ok {
		lock = &documentLock{sem: make(chan struct{}, 1)}
		m.locks[documentID] = lock
	}
	lock.refs++
	return lock
}

func (m *RevisionManager) unref(documentID string, lock *documentLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, documentID)
	}
}
