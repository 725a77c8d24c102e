// Package seed fills a fresh wiki with actors, categories and pages.
package seed

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	loremgen "github.com/bozaro/golorem"

	models "wikicore/internal/domain/models/wiki"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/utils"
)

//go:embed pages/*.md
var pageFiles embed.FS

// DefaultActors are the accounts every seeded wiki starts with
var DefaultActors = []models.Actor{
	{ID: "root", Username: "root", DisplayName: "Root", IsAdmin: true},
	{ID: "mod", Username: "mod", DisplayName: "Moderator", IsModerator: true},
	{ID: "ana", Username: "ana", DisplayName: "Ana"},
	{ID: "bob", Username: "bob", DisplayName: "Bob"},
}

// Seeder writes seed data through the engine so revisions, caches and
// edit counts stay consistent.
type Seeder struct {
	store  wikiRepo.Store
	engine wikiSvc.Engine
	lorem  *loremgen.Lorem
	logger *slog.Logger

	categoryIDs map[string]string
}

// NewSeeder creates a new seeder
func NewSeeder(store wikiRepo.Store, engine wikiSvc.Engine, logger *slog.Logger) *Seeder {
	return &Seeder{
		store:       store,
		engine:      engine,
		lorem:       loremgen.New(),
		logger:      logger,
		categoryIDs: make(map[string]string),
	}
}

// SeedActors upserts the given actors
func (s *Seeder) SeedActors(ctx context.Context, actors []models.Actor) error {
	for i := range actors {
		actor := actors[i]
		if err := s.store.Actors().Upsert(ctx, &actor); err != nil {
			return fmt.Errorf("seed actor %s: %w", actor.Username, err)
		}
	}
	s.logger.Info("actors seeded", "count", len(actors))
	return nil
}

// SeedPages imports every embedded page file. Pages are force-approved and
// attributed to their frontmatter author.
func (s *Seeder) SeedPages(ctx context.Context) (int, error) {
	names, err := fs.Glob(pageFiles, "pages/*.md")
	if err != nil {
		return 0, err
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := pageFiles.ReadFile(name)
		if err != nil {
			return 0, err
		}
		meta, body, err := utils.ParseFrontmatter(content)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		if err := s.importPage(ctx, meta, body); err != nil {
			return 0, fmt.Errorf("%s: %w", path.Base(name), err)
		}
	}
	return len(names), nil
}

// SeedFiller creates count lorem ipsum pages authored by actorID
func (s *Seeder) SeedFiller(ctx context.Context, count int, actorID string) error {
	for i := 1; i <= count; i++ {
		paragraphs := make([]string, 3)
		for p := range paragraphs {
			paragraphs[p] = s.lorem.Paragraph(3, 5)
		}

		meta := &utils.PageMetadata{
			Title:       fmt.Sprintf("Sample Page %d", i),
			Author:      actorID,
			Categories:  []string{"Samples"},
			EditSummary: s.lorem.Sentence(3, 6),
		}
		if err := s.importPage(ctx, meta, strings.Join(paragraphs, "\n\n")); err != nil {
			return err
		}
	}
	s.logger.Info("filler pages seeded", "count", count)
	return nil
}

func (s *Seeder) importPage(ctx context.Context, meta *utils.PageMetadata, body string) error {
	summary := meta.EditSummary
	if summary == "" {
		summary = "Initial import"
	}

	result, err := s.engine.Save(ctx, &wikiSvc.SaveRequest{
		Title:        meta.Title,
		Body:         body,
		EditSummary:  summary,
		ActorID:      meta.Author,
		ForceApprove: true,
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", meta.Title, err)
	}
	doc := result.Document

	if meta.Protected && !doc.Protected {
		protected := *doc
		protected.Protected = true
		if err := s.store.Documents().Update(ctx, &protected); err != nil {
			return fmt.Errorf("protect %q: %w", meta.Title, err)
		}
	}

	for _, name := range meta.Categories {
		categoryID, err := s.category(ctx, name)
		if err != nil {
			return err
		}
		if err := s.store.Categories().AddDocument(ctx, categoryID, doc.ID); err != nil {
			return fmt.Errorf("categorize %q: %w", meta.Title, err)
		}
	}

	s.logger.Info("page seeded",
		"slug", doc.Slug,
		"revision", result.Revision.RevisionNumber,
		"categories", len(meta.Categories),
	)
	return nil
}

// category returns the ID of the named category, creating it on first use
func (s *Seeder) category(ctx context.Context, name string) (string, error) {
	if id, ok := s.categoryIDs[name]; ok {
		return id, nil
	}
	category := &models.Category{Name: name}
	if err := s.store.Categories().Upsert(ctx, category); err != nil {
		return "", fmt.Errorf("seed category %s: %w", name, err)
	}
	s.categoryIDs[name] = category.ID
	return category.ID, nil
}
