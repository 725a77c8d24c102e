package wiki_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"wikicore/internal/cache"
	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/repository/postgres"
	pgwiki "wikicore/internal/repository/postgres/wiki"
	wikiService "wikicore/internal/service/wiki"
)

// testDB holds the container-backed database shared by the tests
type testDB struct {
	pool      *pgxpool.Pool
	container testcontainers.Container
	tables    *postgres.TableNames
}

func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	if os.Getenv("WIKI_INTEGRATION") != "1" {
		t.Skip("set WIKI_INTEGRATION=1 to run PostgreSQL integration tests")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("wiki"),
		tcpostgres.WithUsername("wiki"),
		tcpostgres.WithPassword("wiki"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connection string: %v", err)
	}

	pool, err := postgres.CreateConnectionPool(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect: %v", err)
	}

	db := &testDB{pool: pool, container: container, tables: postgres.NewTableNames("test_")}
	t.Cleanup(func() {
		db.pool.Close()
		if err := db.container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	require.NoError(t, postgres.RunSchema(ctx, pool, db.tables))
	// Running the schema twice must be harmless.
	require.NoError(t, postgres.RunSchema(ctx, pool, db.tables))
	return db
}

// reset truncates every table and returns a fresh store with seeded actors
func (db *testDB) reset(t *testing.T) *pgwiki.Store {
	t.Helper()
	ctx := context.Background()
	for _, table := range db.tables.All() {
		_, err := db.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}

	store := pgwiki.NewStore(&postgres.RepositoryConfig{
		Pool:   db.pool,
		Tables: db.tables,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	for _, actor := range []*models.Actor{
		{ID: "ana", Username: "ana", DisplayName: "Ana Lima"},
		{ID: "bob", Username: "bob"},
		{ID: "root", Username: "root", IsAdmin: true},
		{ID: "mod", Username: "mod", IsModerator: true},
	} {
		require.NoError(t, store.Actors().Upsert(ctx, actor))
	}
	return store
}

func newDocument(title, body string) *models.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Document{
		ID:        uuid.NewString(),
		Title:     title,
		Slug:      models.Slugify(title),
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: "root",
	}
}

func newRevision(documentID string, number int, approved bool) *models.Revision {
	rev := &models.Revision{
		ID:             uuid.NewString(),
		DocumentID:     documentID,
		RevisionNumber: number,
		Title:          "t",
		Body:           fmt.Sprintf("body %d", number),
		EditSummary:    "s",
		CreatedBy:      "bob",
		CreatedAt:      time.Now().UTC(),
		Approved:       approved,
	}
	return rev
}

func TestPostgresStore(t *testing.T) {
	db := setupTestDB(t)

	t.Run("documents", func(t *testing.T) {
		ctx := context.Background()
		store := db.reset(t)

		doc := newDocument("Getting Started", "Hello 100% world")
		require.NoError(t, store.Documents().Create(ctx, doc))

		got, err := store.Documents().GetBySlug(ctx, "getting-started")
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		assert.Equal(t, "Hello 100% world", got.Body)

		dup := newDocument("Getting Started", "other")
		err = store.Documents().Create(ctx, dup)
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, doc.ID, conflict.ResourceID, "slug clash names the page holding the slug")
		assert.Contains(t, conflict.Message, "getting-started")

		sameID := newDocument("Another Page", "other")
		sameID.ID = doc.ID
		err = store.Documents().Create(ctx, sameID)
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "document", conflict.ResourceType)
		assert.NotContains(t, conflict.Message, "slug", "an ID clash is not reported as a taken slug")

		_, err = store.Documents().GetBySlug(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		results, err := store.Documents().Search(ctx, "100%", 50)
		require.NoError(t, err)
		require.Len(t, results, 1)

		results, err = store.Documents().Search(ctx, "1_0", 50)
		require.NoError(t, err)
		assert.Empty(t, results, "underscore is matched literally")

		require.NoError(t, store.Documents().IncrementViews(ctx, doc.ID, 5))
		got, err = store.Documents().GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.ViewCount)

		got.Title = "Start Here"
		got.Slug = "start-here"
		require.NoError(t, store.Documents().Update(ctx, got))
		slugs, err := store.Documents().ListSlugs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"start-here"}, slugs)
	})

	t.Run("revision numbers are unique per document", func(t *testing.T) {
		ctx := context.Background()
		store := db.reset(t)
		doc := newDocument("Page", "")
		require.NoError(t, store.Documents().Create(ctx, doc))

		require.NoError(t, store.Revisions().Create(ctx, newRevision(doc.ID, 1, true)))
		err := store.Revisions().Create(ctx, newRevision(doc.ID, 1, true))
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "revision", conflict.ResourceType)

		highest, err := store.Revisions().MaxRevisionNumber(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, highest)

		err = store.Revisions().Create(ctx, newRevision(uuid.NewString(), 1, true))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("approve and resolve happen once", func(t *testing.T) {
		ctx := context.Background()
		store := db.reset(t)
		doc := newDocument("Page", "")
		require.NoError(t, store.Documents().Create(ctx, doc))
		rev := newRevision(doc.ID, 1, false)
		require.NoError(t, store.Revisions().Create(ctx, rev))
		change := &models.PendingChange{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			RevisionID: rev.ID,
			Status:     models.ChangeStatusPending,
			CreatedAt:  time.Now().UTC(),
		}
		require.NoError(t, store.PendingChanges().Create(ctx, change))

		pending, err := store.PendingChanges().ListPending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "bob", pending[0].Author)
		assert.Equal(t, "page", pending[0].DocumentSlug)
		assert.Equal(t, 1, pending[0].RevisionNumber)

		now := time.Now().UTC()
		require.NoError(t, store.PendingChanges().Resolve(ctx, change.ID, models.ChangeStatusApproved, "mod", now, "ok"))
		err = store.PendingChanges().Resolve(ctx, change.ID, models.ChangeStatusRejected, "mod", now, "no")
		assert.ErrorIs(t, err, domain.ErrConflict)

		published, err := store.Revisions().HasApproved(ctx, doc.ID)
		require.NoError(t, err)
		assert.False(t, published)
		require.NoError(t, store.Revisions().Approve(ctx, rev.ID, "mod", now))
		published, err = store.Revisions().HasApproved(ctx, doc.ID)
		require.NoError(t, err)
		assert.True(t, published)
		err = store.Revisions().Approve(ctx, rev.ID, "mod", now)
		assert.ErrorIs(t, err, domain.ErrConflict)
		err = store.Revisions().Approve(ctx, uuid.NewString(), "mod", now)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		ctx := context.Background()
		store := db.reset(t)
		doc := newDocument("Page", "")

		err := store.ExecTx(ctx, func(txCtx context.Context) error {
			require.NoError(t, store.Documents().Create(txCtx, doc))
			return store.Revisions().Create(txCtx, newRevision(uuid.NewString(), 1, true))
		})
		require.Error(t, err)

		_, err = store.Documents().GetByID(ctx, doc.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("categories and stats", func(t *testing.T) {
		ctx := context.Background()
		store := db.reset(t)
		doc := newDocument("Page", "")
		require.NoError(t, store.Documents().Create(ctx, doc))

		cat := &models.Category{Name: "Guides"}
		require.NoError(t, store.Categories().Upsert(ctx, cat))
		again := &models.Category{Name: "Guides", Description: "How-tos"}
		require.NoError(t, store.Categories().Upsert(ctx, again))
		assert.Equal(t, cat.ID, again.ID)
		require.NoError(t, store.Categories().AddDocument(ctx, cat.ID, doc.ID))
		require.NoError(t, store.Categories().AddDocument(ctx, cat.ID, doc.ID))

		categories, err := store.Categories().List(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, 1, categories[0].MemberCount)
		assert.Equal(t, "How-tos", categories[0].Description)

		stats, err := store.Stats().GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Documents)
		assert.Equal(t, 4, stats.Actors)
	})

	t.Run("engine scenarios", func(t *testing.T) {
		ctx := context.Background()
		store := db.reset(t)
		resolver := wikiService.NewPermissionResolver(wikiService.ResolverConfig{
			PersonalNamespacePrefix: "User:",
			Ownership:               wikiService.DenyAllOwnership,
		})
		engine := wikiService.NewEngine(store, cache.New(), resolver, wikiService.Config{}, nil)
		defer engine.Close()

		created, err := engine.Save(ctx, &wikiSvc.SaveRequest{Title: "User:ana", Body: "hi", EditSummary: "create", ActorID: "ana"})
		require.NoError(t, err)
		assert.Equal(t, wikiSvc.SaveOutcomeApplied, created.Outcome)

		queued, err := engine.Save(ctx, &wikiSvc.SaveRequest{Title: "User:ana", Body: "bob", EditSummary: "edit", ActorID: "bob"})
		require.NoError(t, err)
		assert.Equal(t, wikiSvc.SaveOutcomeQueued, queued.Outcome)

		_, err = engine.Review(ctx, &wikiSvc.ReviewRequest{ChangeID: queued.PendingChange.ID, Decision: models.ChangeStatusApproved, ReviewerID: "root"})
		require.NoError(t, err)
		doc, err := engine.GetDocument(ctx, "userana")
		require.NoError(t, err)
		assert.Equal(t, "bob", doc.Body)

		// Concurrent writers still produce a gapless sequence.
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := engine.Save(ctx, &wikiSvc.SaveRequest{
					Title: "User:ana", Body: fmt.Sprintf("v%d", i), EditSummary: "burst", ActorID: "ana",
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		highest, err := store.Revisions().MaxRevisionNumber(ctx, created.Document.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, highest)
		history, err := store.Revisions().ListByDocument(ctx, created.Document.ID)
		require.NoError(t, err)
		assert.Len(t, history, 12)
	})
}
