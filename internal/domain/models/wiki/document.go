package wiki

import (
	"time"
)

type Document struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Slug      string    `json:"slug" db:"slug"` // Always Slugify(Title)
	Body      string    `json:"body" db:"body"` // Empty until the first revision is approved
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	ViewCount int64     `json:"view_count" db:"view_count"`
	Protected bool      `json:"protected" db:"protected"`
}

// SlugList is the cached list of every live slug, sorted ascending.
type SlugList struct {
	Slugs []string `json:"slugs"`
}

// SearchResults is the cached result of a substring search over title and body.
type SearchResults struct {
	Query     string     `json:"query"`
	Documents []Document `json:"documents"`
}
