package wiki

import (
	"context"

	models "wikicore/internal/domain/models/wiki"
)

// Engine is the read/write orchestration surface of the wiki.
// Returned values may be shared between concurrent callers and must be
// treated as read-only.
type Engine interface {
	// GetDocument returns the live document for slug (cached, deduplicated)
	GetDocument(ctx context.Context, slug string) (*models.Document, error)

	// GetHistory returns a document's revisions, newest first
	GetHistory(ctx context.Context, slug string) (*models.History, error)

	// SearchDocuments performs a substring search over title and body
	SearchDocuments(ctx context.Context, query string) (*models.SearchResults, error)

	// ListAllSlugs returns every live slug
	ListAllSlugs(ctx context.Context) (*models.SlugList, error)

	// ListCategories returns all categories with member counts
	ListCategories(ctx context.Context) (*models.CategoryList, error)

	// Save proposes a change; it is either applied or queued for review
	Save(ctx context.Context, req *SaveRequest) (*SaveResult, error)

	// Review resolves a pending change
	Review(ctx context.Context, req *ReviewRequest) (*ReviewResult, error)

	// Revert re-applies an approved historical revision as a new revision
	Revert(ctx context.Context, req *RevertRequest) (*SaveResult, error)

	// DeleteDocument removes a document with its revisions and pending changes (admin only)
	DeleteDocument(ctx context.Context, documentID, reason, actorID string) error

	// GetPendingChanges returns the unresolved review queue
	GetPendingChanges(ctx context.Context) (*models.PendingChanges, error)

	// GetRecentChanges returns the newest revisions across the wiki
	GetRecentChanges(ctx context.Context, limit int) (*models.RecentChanges, error)

	// GetStats returns aggregate counters
	GetStats(ctx context.Context) (*models.Stats, error)

	// Close stops background work and flushes buffered view counts
	Close()
}

// SaveOutcome tells the caller which message to present; both are successes.
type SaveOutcome string

const (
	SaveOutcomeApplied SaveOutcome = "applied"
	SaveOutcomeQueued  SaveOutcome = "queued"
)

// SaveRequest represents a proposed change to a page
type SaveRequest struct {
	Slug         string `json:"slug"` // Target page; defaults to Slugify(Title)
	Title        string `json:"title"`
	Body         string `json:"body"`
	EditSummary  string `json:"edit_summary"`
	ActorID      string `json:"-"` // Set by handler from auth context, not from request body
	ForceApprove bool   `json:"-"` // Trusted callers only (seeding, imports)
}

// SaveResult describes what a save did
type SaveResult struct {
	Outcome       SaveOutcome           `json:"outcome"`
	Document      *models.Document      `json:"document"`
	Revision      *models.Revision      `json:"revision"`
	PendingChange *models.PendingChange `json:"pending_change,omitempty"`
}

// ReviewRequest represents a moderator decision on a pending change
type ReviewRequest struct {
	ChangeID   string              `json:"-"`
	Decision   models.ChangeStatus `json:"decision"` // approved or rejected
	Comment    string              `json:"comment"`
	ReviewerID string              `json:"-"`
}

// ReviewResult describes a resolved change
type ReviewResult struct {
	PendingChange *models.PendingChange `json:"pending_change"`
	Document      *models.Document      `json:"document"`
	Revision      *models.Revision      `json:"revision"`
}

// RevertRequest asks to restore a document to an approved revision
type RevertRequest struct {
	Slug           string `json:"-"`
	RevisionNumber int    `json:"revision_number"`
	EditSummary    string `json:"edit_summary,omitempty"` // Optional reason appended to the generated summary
	ActorID        string `json:"-"`
}
