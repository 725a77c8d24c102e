package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikicore/internal/cache"
	"wikicore/internal/repository/memory"
	serviceWiki "wikicore/internal/service/wiki"
)

func newSeeder(t *testing.T) (*Seeder, *memory.Store, func()) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	engine := serviceWiki.NewEngine(
		store,
		cache.New(),
		serviceWiki.NewPermissionResolver(serviceWiki.ResolverConfig{PersonalNamespacePrefix: "User:"}),
		serviceWiki.Config{},
		logger,
	)
	return NewSeeder(store, engine, logger), store, engine.Close
}

func TestSeeder_SeedPages(t *testing.T) {
	ctx := context.Background()
	seeder, store, closeEngine := newSeeder(t)
	defer closeEngine()

	require.NoError(t, seeder.SeedActors(ctx, DefaultActors))

	count, err := seeder.SeedPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	slugs, err := store.Documents().ListSlugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"editing-guidelines", "main-page", "serverminecraft-hub", "userana"}, slugs)

	mainPage, err := store.Documents().GetBySlug(ctx, "main-page")
	require.NoError(t, err)
	assert.True(t, mainPage.Protected)
	assert.Equal(t, "root", mainPage.CreatedBy)
	assert.Contains(t, mainPage.Body, "# Welcome")

	categories, err := store.Categories().List(ctx)
	require.NoError(t, err)
	members := make(map[string]int)
	for _, c := range categories {
		members[c.Name] = c.MemberCount
	}
	assert.Equal(t, map[string]int{"Games": 1, "Help": 2, "Servers": 1}, members)

	stats, err := store.Stats().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PendingChanges)
}

func TestSeeder_SeedPagesTwiceAddsRevisions(t *testing.T) {
	ctx := context.Background()
	seeder, store, closeEngine := newSeeder(t)
	defer closeEngine()

	require.NoError(t, seeder.SeedActors(ctx, DefaultActors))
	_, err := seeder.SeedPages(ctx)
	require.NoError(t, err)
	_, err = seeder.SeedPages(ctx)
	require.NoError(t, err)

	doc, err := store.Documents().GetBySlug(ctx, "userana")
	require.NoError(t, err)
	latest, err := store.Revisions().MaxRevisionNumber(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestSeeder_SeedFiller(t *testing.T) {
	ctx := context.Background()
	seeder, store, closeEngine := newSeeder(t)
	defer closeEngine()

	require.NoError(t, seeder.SeedActors(ctx, DefaultActors))
	require.NoError(t, seeder.SeedFiller(ctx, 3, "bob"))

	for _, slug := range []string{"sample-page-1", "sample-page-2", "sample-page-3"} {
		doc, err := store.Documents().GetBySlug(ctx, slug)
		require.NoError(t, err, slug)
		assert.NotEmpty(t, doc.Body)
	}
}

func TestSeeder_UnknownAuthorFails(t *testing.T) {
	ctx := context.Background()
	seeder, _, closeEngine := newSeeder(t)
	defer closeEngine()

	_, err := seeder.SeedPages(ctx)
	assert.Error(t, err)
}
