package wiki

import (
	"context"
	"strings"
	"unicode/utf8"

	"wikicore/internal/config"
	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
)

// GetDocument returns the live document and records a view.
func (e *engine) GetDocument(ctx context.Context, slug string) (*models.Document, error) {
	doc, err := e.lookupDocument(ctx, slug)
	if err != nil {
		return nil, err
	}
	e.views.Record(doc.ID)
	return doc, nil
}

// lookupDocument is the cache-aware read shared by GetDocument and the
// write paths. It records no view.
func (e *engine) lookupDocument(ctx context.Context, slug string) (*models.Document, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.NewValidation("slug is required")
	}
	doc, err := cached(ctx, e, documentKey(slug), e.policy.Document, func(ctx context.Context) (*models.Document, error) {
		return e.store.Documents().GetBySlug(ctx, slug)
	})
	if err != nil {
		return nil, domain.AsStorage("get document", err)
	}
	return doc, nil
}

func (e *engine) GetHistory(ctx context.Context, slug string) (*models.History, error) {
	doc, err := e.lookupDocument(ctx, slug)
	if err != nil {
		return nil, err
	}
	history, err := cached(ctx, e, historyKey(doc.Slug), e.policy.History, func(ctx context.Context) (*models.History, error) {
		revisions, err := e.store.Revisions().ListByDocument(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		return &models.History{DocumentID: doc.ID, Revisions: revisions}, nil
	})
	if err != nil {
		return nil, domain.AsStorage("get history", err)
	}
	return history, nil
}

func (e *engine) SearchDocuments(ctx context.Context, query string) (*models.SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.SearchResults{Query: query, Documents: []models.Document{}}, nil
	}
	if utf8.RuneCountInString(query) > config.MaxSearchQueryLength {
		return nil, domain.NewValidation("search query is too long")
	}

	normalized := normalizeSearch(query)
	shared, err := cached(ctx, e, searchKey(normalized), e.policy.Search, func(ctx context.Context) (*models.SearchResults, error) {
		docs, err := e.store.Documents().Search(ctx, normalized, wikiRepo.DefaultSearchLimit)
		if err != nil {
			return nil, err
		}
		return &models.SearchResults{Query: normalized, Documents: docs}, nil
	})
	if err != nil {
		return nil, domain.AsStorage("search documents", err)
	}
	// The cached value is shared across casings; echo this caller's query.
	return &models.SearchResults{Query: query, Documents: shared.Documents}, nil
}

func (e *engine) ListAllSlugs(ctx context.Context) (*models.SlugList, error) {
	list, err := cached(ctx, e, slugsKey, e.policy.Slugs, func(ctx context.Context) (*models.SlugList, error) {
		slugs, err := e.store.Documents().ListSlugs(ctx)
		if err != nil {
			return nil, err
		}
		return &models.SlugList{Slugs: slugs}, nil
	})
	if err != nil {
		return nil, domain.AsStorage("list slugs", err)
	}
	return list, nil
}

func (e *engine) ListCategories(ctx context.Context) (*models.CategoryList, error) {
	list, err := cached(ctx, e, categoriesKey, e.policy.Categories, func(ctx context.Context) (*models.CategoryList, error) {
		categories, err := e.store.Categories().List(ctx)
		if err != nil {
			return nil, err
		}
		return &models.CategoryList{Categories: categories}, nil
	})
	if err != nil {
		return nil, domain.AsStorage("list categories", err)
	}
	return list, nil
}

func (e *engine) GetPendingChanges(ctx context.Context) (*models.PendingChanges, error) {
	pending, err := cached(ctx, e, pendingKey, e.policy.PendingChanges, func(ctx context.Context) (*models.PendingChanges, error) {
		changes, err := e.store.PendingChanges().ListPending(ctx)
		if err != nil {
			return nil, err
		}
		return &models.PendingChanges{Changes: changes}, nil
	})
	if err != nil {
		return nil, domain.AsStorage("list pending changes", err)
	}
	return pending, nil
}

// GetRecentChanges clamps limit to [1, MaxRecentChangesLimit]; zero or
// negative means the default.
func (e *engine) GetRecentChanges(ctx context.Context, limit int) (*models.RecentChanges, error) {
	switch {
	case limit <= 0:
		limit = config.DefaultRecentChangesLimit
	case limit > config.MaxRecentChangesLimit:
		limit = config.MaxRecentChangesLimit
	}

	recent, err := cached(ctx, e, recentKey(limit), e.policy.RecentChanges, func(ctx context.Context) (*models.RecentChanges, error) {
		changes, err := e.store.Revisions().ListRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &models.RecentChanges{Changes: changes}, nil
	})
	if err != nil {
		return nil, domain.AsStorage("list recent changes", err)
	}
	return recent, nil
}

func (e *engine) GetStats(ctx context.Context) (*models.Stats, error) {
	stats, err := cached(ctx, e, statsKey, e.policy.Stats, func(ctx context.Context) (*models.Stats, error) {
		return e.store.Stats().GetStats(ctx)
	})
	if err != nil {
		return nil, domain.AsStorage("get stats", err)
	}
	return stats, nil
}
