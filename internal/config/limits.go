package config

const (
	// MaxTitleLength is the maximum length for page titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTitleLength = 255

	// MaxEditSummaryLength is the maximum length for edit summaries and
	// review comments.
	MaxEditSummaryLength = 500

	// MaxBodyBytes is the maximum size of a page body.
	MaxBodyBytes = 2 << 20

	// MaxRecentChangesLimit caps GetRecentChanges.
	MaxRecentChangesLimit = 500

	// DefaultRecentChangesLimit is used when the caller passes no limit.
	DefaultRecentChangesLimit = 50

	// MaxSearchQueryLength bounds search input.
	MaxSearchQueryLength = 200

	// DefaultSlowTierMaxEntries bounds the slow cache tier before writes are
	// rejected as over quota.
	DefaultSlowTierMaxEntries = 10000
)
