package wiki

import (
	"context"
	"strings"

	models "wikicore/internal/domain/models/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
)

// Verdict reasons, shown to end users.
const (
	reasonAdmin             = "site administrator"
	reasonProtected         = "document is protected"
	reasonModerator         = "moderator edits are recorded for review"
	reasonCreator           = "you created this document"
	reasonOwner             = "you own the resource this page describes"
	reasonPersonalNamespace = "personal namespace page"
	reasonNeedsReview       = "edits by other contributors are reviewed before publishing"
)

// AllowAllOwnership approves every ownership claim. The rule for who owns a
// community resource is not settled, so this is the shipped default.
func AllowAllOwnership(context.Context, string, string) bool {
	return true
}

// DenyAllOwnership rejects every ownership claim.
func DenyAllOwnership(context.Context, string, string) bool {
	return false
}

// ResolverConfig configures the permission resolver.
type ResolverConfig struct {
	// OwnablePrefixes are title prefixes naming an external resource, e.g. "Server:".
	OwnablePrefixes []string
	// PersonalNamespacePrefix marks a user's own page, e.g. "User:".
	PersonalNamespacePrefix string
	// Ownership decides whether an actor owns the resource behind an ownable title.
	Ownership wikiSvc.OwnershipChecker
}

type permissionResolver struct {
	ownablePrefixes []string
	personalPrefix  string
	ownership       wikiSvc.OwnershipChecker
}

// NewPermissionResolver creates the rule-based resolver.
func NewPermissionResolver(cfg ResolverConfig) wikiSvc.PermissionResolver {
	ownership := cfg.Ownership
	if ownership == nil {
		ownership = AllowAllOwnership
	}
	return &permissionResolver{
		ownablePrefixes: cfg.OwnablePrefixes,
		personalPrefix:  cfg.PersonalNamespacePrefix,
		ownership:       ownership,
	}
}

// ResolveEdit evaluates the rules in order; the first match wins. title is
// the proposed title; ownership is judged on the existing document's title
// so renaming a page into an ownable namespace grants nothing. The creator
// rule only applies once the page is published: a creation still waiting
// for review gives its author no rights over it.
func (r *permissionResolver) ResolveEdit(ctx context.Context, actor *models.Actor, doc *models.Document, title string, published bool) wikiSvc.Verdict {
	switch {
	case actor.IsAdmin:
		return wikiSvc.Verdict{CanEdit: true, Reason: reasonAdmin}
	case doc.Protected && !actor.IsModerator:
		return wikiSvc.Verdict{CanEdit: false, Reason: reasonProtected}
	case actor.IsModerator:
		return wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonModerator}
	case published && doc.CreatedBy != "" && doc.CreatedBy == actor.ID:
		return wikiSvc.Verdict{CanEdit: true, Reason: reasonCreator}
	case r.ownsResource(ctx, actor, doc.Title):
		return wikiSvc.Verdict{CanEdit: true, Reason: reasonOwner}
	default:
		return wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonNeedsReview}
	}
}

// ResolveCreate decides whether the first revision of a new page is
// published immediately.
func (r *permissionResolver) ResolveCreate(ctx context.Context, actor *models.Actor, title string) wikiSvc.Verdict {
	switch {
	case actor.IsAdmin:
		return wikiSvc.Verdict{CanEdit: true, Reason: reasonAdmin}
	case actor.IsModerator:
		return wikiSvc.Verdict{CanEdit: true, Reason: reasonModerator}
	case r.isPersonalPage(actor, title):
		return wikiSvc.Verdict{CanEdit: true, Reason: reasonPersonalNamespace}
	case r.ownsResource(ctx, actor, title):
		return wikiSvc.Verdict{CanEdit: true, Reason: reasonOwner}
	default:
		return wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonNeedsReview}
	}
}

// isPersonalPage matches "<prefix><username>" or "<prefix><display name>",
// case-insensitively, along with their "/" subpages.
func (r *permissionResolver) isPersonalPage(actor *models.Actor, title string) bool {
	if r.personalPrefix == "" {
		return false
	}
	rest, ok := cutPrefixFold(strings.TrimSpace(title), r.personalPrefix)
	if !ok {
		return false
	}
	owner, _, _ := strings.Cut(rest, "/")
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return false
	}
	return strings.EqualFold(owner, actor.Username) ||
		(actor.DisplayName != "" && strings.EqualFold(owner, actor.DisplayName))
}

func (r *permissionResolver) ownsResource(ctx context.Context, actor *models.Actor, title string) bool {
	for _, prefix := range r.ownablePrefixes {
		rest, ok := cutPrefixFold(strings.TrimSpace(title), prefix)
		if !ok {
			continue
		}
		name := strings.TrimSpace(rest)
		if name == "" {
			return false
		}
		return r.ownership(ctx, actor.ID, name)
	}
	return false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if prefix == "" || len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
