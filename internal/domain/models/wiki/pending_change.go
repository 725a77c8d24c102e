package wiki

import "time"

// ChangeStatus is the state of a PendingChange. Pending is the only
// non-terminal state.
type ChangeStatus string

const (
	ChangeStatusPending  ChangeStatus = "pending"
	ChangeStatusApproved ChangeStatus = "approved"
	ChangeStatusRejected ChangeStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ChangeStatus) Valid() bool {
	switch s {
	case ChangeStatusPending, ChangeStatusApproved, ChangeStatusRejected:
		return true
	}
	return false
}

// Resolved reports whether s is terminal.
func (s ChangeStatus) Resolved() bool {
	return s == ChangeStatusApproved || s == ChangeStatusRejected
}

// PendingChange queues one unapproved revision for review.
type PendingChange struct {
	ID            string       `json:"id" db:"id"`
	DocumentID    string       `json:"document_id" db:"document_id"`
	RevisionID    string       `json:"revision_id" db:"revision_id"`
	Status        ChangeStatus `json:"status" db:"status"`
	ReviewedBy    *string      `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt    *time.Time   `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewComment *string      `json:"review_comment,omitempty" db:"review_comment"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`

	// Non-DB fields, populated via JOIN for listings
	DocumentTitle  string `json:"document_title,omitempty"`
	DocumentSlug   string `json:"document_slug,omitempty"`
	RevisionNumber int    `json:"revision_number,omitempty"`
	Author         string `json:"author,omitempty"`
	EditSummary    string `json:"edit_summary,omitempty"`
}

// PendingChanges is the cached review queue, oldest first.
type PendingChanges struct {
	Changes []PendingChange `json:"changes"`
}
