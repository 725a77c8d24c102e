package wiki

import (
	"strconv"
	"strings"
)

// Cache keys. Every invalidation pattern below is also a key prefix, so the
// fast tier's substring match and the slow tier's prefix delete agree.
const (
	slugsKey      = "slugs:all"
	categoriesKey = "categories:all"
	pendingKey    = "pending:all"
	statsKey      = "stats:all"

	slugsPattern      = "slugs:"
	categoriesPattern = "categories:"
	searchPattern     = "search:"
	recentPattern     = "recent:"
	pendingPattern    = "pending:"
	statsPattern      = "stats:"
)

func pagePattern(slug string) string { return "page:" + slug + ":" }
func documentKey(slug string) string { return pagePattern(slug) + "doc" }
func historyKey(slug string) string  { return pagePattern(slug) + "history" }
func recentKey(limit int) string     { return recentPattern + strconv.Itoa(limit) }

// normalizeSearch folds a query to the form searches are keyed and run by.
// Matching is case-insensitive, so queries differing only in case share one
// cached result.
func normalizeSearch(query string) string {
	return strings.ToLower(query)
}

func searchKey(normalized string) string {
	return searchPattern + normalized
}
