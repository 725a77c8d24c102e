package wiki

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wikicore/internal/cache"
	models "wikicore/internal/domain/models/wiki"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/repository/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// faultStore decorates the memory store with call counting and injected
// failures on the document repository.
type faultStore struct {
	*memory.Store
	docs *faultDocuments
}

func (s *faultStore) Documents() wikiRepo.DocumentRepository { return s.docs }

type faultDocuments struct {
	wikiRepo.DocumentRepository

	getBySlugCalls atomic.Int32
	getBySlugDelay time.Duration
	failUpdate     atomic.Pointer[error]
	holdListSlugs  atomic.Pointer[gate]
}

// gate parks one call after it has read from the store.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

// ListSlugs holds the first call after a gate is installed until the gate
// is released, returning what the store held when the call began.
func (d *faultDocuments) ListSlugs(ctx context.Context) ([]string, error) {
	slugs, err := d.DocumentRepository.ListSlugs(ctx)
	if g := d.holdListSlugs.Swap(nil); g != nil {
		g.entered <- struct{}{}
		<-g.release
	}
	return slugs, err
}

func (d *faultDocuments) GetBySlug(ctx context.Context, slug string) (*models.Document, error) {
	d.getBySlugCalls.Add(1)
	if d.getBySlugDelay > 0 {
		time.Sleep(d.getBySlugDelay)
	}
	return d.DocumentRepository.GetBySlug(ctx, slug)
}

func (d *faultDocuments) Update(ctx context.Context, doc *models.Document) error {
	if errp := d.failUpdate.Load(); errp != nil {
		return *errp
	}
	return d.DocumentRepository.Update(ctx, doc)
}

type testEnv struct {
	t      *testing.T
	store  *faultStore
	cache  *cache.Cache
	engine wikiSvc.Engine
}

type envOption func(*envConfig)

type envConfig struct {
	resolver wikiSvc.PermissionResolver
	delay    time.Duration
}

func withResolver(resolver wikiSvc.PermissionResolver) envOption {
	return func(c *envConfig) { c.resolver = resolver }
}

func withFetchDelay(d time.Duration) envOption {
	return func(c *envConfig) { c.delay = d }
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultResolver() wikiSvc.PermissionResolver {
	return NewPermissionResolver(ResolverConfig{
		OwnablePrefixes:         []string{"Server:"},
		PersonalNamespacePrefix: "User:",
		Ownership:               AllowAllOwnership,
	})
}

func newTestEnv(t *testing.T, options ...envOption) *testEnv {
	t.Helper()
	cfg := &envConfig{resolver: defaultResolver()}
	for _, option := range options {
		option(cfg)
	}

	mem := memory.NewStore()
	store := &faultStore{
		Store: mem,
		docs:  &faultDocuments{DocumentRepository: mem.Documents(), getBySlugDelay: cfg.delay},
	}
	ctx := context.Background()
	for _, actor := range []*models.Actor{
		{ID: "ana", Username: "ana", DisplayName: "Ana Lima"},
		{ID: "bob", Username: "bob"},
		{ID: "root", Username: "root", IsAdmin: true},
		{ID: "mod", Username: "mod", IsModerator: true},
	} {
		require.NoError(t, store.Actors().Upsert(ctx, actor))
	}

	c := cache.New(cache.WithLogger(testLogger()), cache.WithSlowTier(cache.NewMemoryTier(0)))
	eng := NewEngine(store, c, cfg.resolver, Config{ViewFlushInterval: time.Hour}, testLogger())
	t.Cleanup(eng.Close)

	return &testEnv{t: t, store: store, cache: c, engine: eng}
}

func (env *testEnv) save(actorID, title, body, summary string) *wikiSvc.SaveResult {
	env.t.Helper()
	result, err := env.engine.Save(context.Background(), &wikiSvc.SaveRequest{
		Title:       title,
		Body:        body,
		EditSummary: summary,
		ActorID:     actorID,
	})
	require.NoError(env.t, err)
	return result
}

// storedDocument reads the document straight from the store, bypassing caches.
func (env *testEnv) storedDocument(slug string) *models.Document {
	env.t.Helper()
	doc, err := env.store.Store.Documents().GetBySlug(context.Background(), slug)
	require.NoError(env.t, err)
	return doc
}

func (env *testEnv) revisionNumbers(documentID string) []int {
	env.t.Helper()
	revisions, err := env.store.Revisions().ListByDocument(context.Background(), documentID)
	require.NoError(env.t, err)
	numbers := make([]int, 0, len(revisions))
	for i := len(revisions) - 1; i >= 0; i-- {
		numbers = append(numbers, revisions[i].RevisionNumber)
	}
	return numbers
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
