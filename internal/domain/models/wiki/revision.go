package wiki

import "time"

// Revision is an immutable snapshot of a document's title and body.
// The only mutation ever applied is flipping Approved from false to true
// together with the approver stamp.
type Revision struct {
	ID             string     `json:"id" db:"id"`
	DocumentID     string     `json:"document_id" db:"document_id"`
	Title          string     `json:"title" db:"title"`
	Body           string     `json:"body" db:"body"`
	EditSummary    string     `json:"edit_summary" db:"edit_summary"`
	CreatedBy      string     `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	RevisionNumber int        `json:"revision_number" db:"revision_number"` // 1-based, per document
	Approved       bool       `json:"approved" db:"approved"`
	ApprovedBy     *string    `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty" db:"approved_at"`
}

// History is the cached, newest-first revision list of one document.
type History struct {
	DocumentID string     `json:"document_id"`
	Revisions  []Revision `json:"revisions"`
}

// RecentChange is a revision joined with the slug and title of its document.
type RecentChange struct {
	Revision
	DocumentSlug  string `json:"document_slug"`
	DocumentTitle string `json:"document_title"`
}

// RecentChanges is the cached recent-changes feed.
type RecentChanges struct {
	Changes []RecentChange `json:"changes"`
}
