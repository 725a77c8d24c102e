package cache

import (
	models "wikicore/internal/domain/models/wiki"
)

// Kind tags a cached value so a lookup can never decode one variant as another.
type Kind string

const (
	KindDocument       Kind = "document"
	KindHistory        Kind = "history"
	KindSlugList       Kind = "slug_list"
	KindCategoryList   Kind = "category_list"
	KindSearchResults  Kind = "search_results"
	KindRecentChanges  Kind = "recent_changes"
	KindPendingChanges Kind = "pending_changes"
	KindStats          Kind = "stats"
)

// Value is the closed set of cacheable variants.
type Value interface {
	*models.Document |
		*models.History |
		*models.SlugList |
		*models.CategoryList |
		*models.SearchResults |
		*models.RecentChanges |
		*models.PendingChanges |
		*models.Stats
}

// KindOf returns the tag of a cacheable variant.
func KindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case *models.Document:
		return KindDocument
	case *models.History:
		return KindHistory
	case *models.SlugList:
		return KindSlugList
	case *models.CategoryList:
		return KindCategoryList
	case *models.SearchResults:
		return KindSearchResults
	case *models.RecentChanges:
		return KindRecentChanges
	case *models.PendingChanges:
		return KindPendingChanges
	default:
		return KindStats
	}
}
