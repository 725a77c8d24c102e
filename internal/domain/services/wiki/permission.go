package wiki

import (
	"context"

	models "wikicore/internal/domain/models/wiki"
)

// Verdict is the permission decision for one (actor, page) pair.
type Verdict struct {
	CanEdit       bool   `json:"can_edit"`
	NeedsApproval bool   `json:"needs_approval"`
	Reason        string `json:"reason,omitempty"`
}

// PermissionResolver decides whether an edit may apply immediately.
type PermissionResolver interface {
	// ResolveEdit evaluates an edit of an existing document. published
	// reports whether the document has at least one approved revision.
	ResolveEdit(ctx context.Context, actor *models.Actor, doc *models.Document, title string, published bool) Verdict

	// ResolveCreate evaluates publishing the first revision of a new page
	ResolveCreate(ctx context.Context, actor *models.Actor, title string) Verdict
}

// OwnershipChecker reports whether actorID owns the external resource
// (a community or server) named resourceName.
type OwnershipChecker func(ctx context.Context, actorID, resourceName string) bool
