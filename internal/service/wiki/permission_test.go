package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	models "wikicore/internal/domain/models/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
)

func TestPermissionResolver_ResolveEdit(t *testing.T) {
	admin := &models.Actor{ID: "root", Username: "root", IsAdmin: true}
	moderator := &models.Actor{ID: "mod", Username: "mod", IsModerator: true}
	author := &models.Actor{ID: "ana", Username: "ana"}
	stranger := &models.Actor{ID: "bob", Username: "bob"}

	page := &models.Document{ID: "d1", Title: "Getting Started", CreatedBy: "ana"}
	protected := &models.Document{ID: "d2", Title: "Rules", CreatedBy: "ana", Protected: true}
	server := &models.Document{ID: "d3", Title: "Server: Lobby", CreatedBy: "root"}

	ownsLobby := func(_ context.Context, actorID, resource string) bool {
		return actorID == "bob" && resource == "Lobby"
	}

	tests := []struct {
		name      string
		ownership wikiSvc.OwnershipChecker
		actor     *models.Actor
		doc       *models.Document
		title     string
		want      wikiSvc.Verdict
		// unpublished marks a page whose first revision is still awaiting review
		unpublished bool
	}{
		{
			name:  "admin edits directly",
			actor: admin, doc: page, title: page.Title,
			want: wikiSvc.Verdict{CanEdit: true, Reason: reasonAdmin},
		},
		{
			name:  "admin edits protected page",
			actor: admin, doc: protected, title: protected.Title,
			want: wikiSvc.Verdict{CanEdit: true, Reason: reasonAdmin},
		},
		{
			name:  "moderator needs approval",
			actor: moderator, doc: page, title: page.Title,
			want: wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonModerator},
		},
		{
			name:  "moderator may edit protected page",
			actor: moderator, doc: protected, title: protected.Title,
			want: wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonModerator},
		},
		{
			name:  "author edits own page directly",
			actor: author, doc: page, title: "Getting Started (v2)",
			want: wikiSvc.Verdict{CanEdit: true, Reason: reasonCreator},
		},
		{
			name:  "author of a page awaiting first review needs approval",
			actor: author, doc: page, title: page.Title, unpublished: true,
			want: wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonNeedsReview},
		},
		{
			name:  "admin edits unpublished page directly",
			actor: admin, doc: page, title: page.Title, unpublished: true,
			want: wikiSvc.Verdict{CanEdit: true, Reason: reasonAdmin},
		},
		{
			name:  "author blocked on own protected page",
			actor: author, doc: protected, title: protected.Title,
			want: wikiSvc.Verdict{CanEdit: false, Reason: reasonProtected},
		},
		{
			name:  "stranger needs approval",
			actor: stranger, doc: page, title: page.Title,
			want: wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonNeedsReview},
		},
		{
			name:      "resource owner edits directly",
			ownership: ownsLobby,
			actor:     stranger, doc: server, title: server.Title,
			want: wikiSvc.Verdict{CanEdit: true, Reason: reasonOwner},
		},
		{
			name:      "non-owner of resource needs approval",
			ownership: ownsLobby,
			actor:     author, doc: server, title: server.Title,
			want: wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonNeedsReview},
		},
		{
			name:      "renaming into an ownable title grants nothing",
			ownership: AllowAllOwnership,
			actor:     stranger, doc: page, title: "Server: Lobby",
			want: wikiSvc.Verdict{CanEdit: true, NeedsApproval: true, Reason: reasonNeedsReview},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ownership := tt.ownership
			if ownership == nil {
				ownership = DenyAllOwnership
			}
			resolver := NewPermissionResolver(ResolverConfig{
				OwnablePrefixes:         []string{"Server:"},
				PersonalNamespacePrefix: "User:",
				Ownership:               ownership,
			})

			got := resolver.ResolveEdit(context.Background(), tt.actor, tt.doc, tt.title, !tt.unpublished)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPermissionResolver_ResolveCreate(t *testing.T) {
	resolver := NewPermissionResolver(ResolverConfig{
		OwnablePrefixes:         []string{"Server:"},
		PersonalNamespacePrefix: "User:",
		Ownership: func(_ context.Context, actorID, resource string) bool {
			return resource == "Lobby"
		},
	})
	ana := &models.Actor{ID: "ana", Username: "ana", DisplayName: "Ana Lima"}

	tests := []struct {
		name          string
		actor         *models.Actor
		title         string
		needsApproval bool
	}{
		{name: "admin", actor: &models.Actor{ID: "root", IsAdmin: true}, title: "Anything"},
		{name: "moderator", actor: &models.Actor{ID: "mod", IsModerator: true}, title: "Anything"},
		{name: "own personal page", actor: ana, title: "User:ana"},
		{name: "personal page is case-insensitive", actor: ana, title: "user:ANA"},
		{name: "personal page by display name", actor: ana, title: "User:ana lima"},
		{name: "personal subpage", actor: ana, title: "User:ana/drafts"},
		{name: "someone else's personal page", actor: ana, title: "User:bob", needsApproval: true},
		{name: "bare namespace", actor: ana, title: "User:", needsApproval: true},
		{name: "owned resource page", actor: ana, title: "Server: Lobby"},
		{name: "unowned resource page", actor: ana, title: "Server: Arena", needsApproval: true},
		{name: "ordinary page", actor: ana, title: "Getting Started", needsApproval: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.ResolveCreate(context.Background(), tt.actor, tt.title)
			assert.True(t, got.CanEdit)
			assert.Equal(t, tt.needsApproval, got.NeedsApproval)
		})
	}
}

func TestNewPermissionResolver_DefaultsToAllowAllOwnership(t *testing.T) {
	resolver := NewPermissionResolver(ResolverConfig{OwnablePrefixes: []string{"Server:"}})

	got := resolver.ResolveCreate(context.Background(), &models.Actor{ID: "x"}, "Server: Anything")
	assert.False(t, got.NeedsApproval)
}
