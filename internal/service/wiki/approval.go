package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/metrics"
)

// Review resolves a pending change. Approving copies the revision onto the
// live document; rejecting only records the decision. A change that is no
// longer pending yields a *domain.ConflictError and changes nothing.
func (e *engine) Review(ctx context.Context, req *wikiSvc.ReviewRequest) (*wikiSvc.ReviewResult, error) {
	if req == nil {
		return nil, domain.NewValidation("request is required")
	}
	input := *req
	input.Comment = e.sanitizer.Sanitize(req.Comment)
	if err := validateReviewRequest(&input); err != nil {
		return nil, err
	}

	reviewer, err := e.loadActor(ctx, input.ReviewerID)
	if err != nil {
		return nil, err
	}
	if !reviewer.Privileged() {
		return nil, domain.NewForbidden("only moderators and administrators can review changes")
	}

	change, err := e.store.PendingChanges().GetByID(ctx, input.ChangeID)
	if err != nil {
		return nil, domain.AsStorage("load pending change", err)
	}
	if change.Status.Resolved() {
		return nil, alreadyResolved(change)
	}
	rev, err := e.store.Revisions().GetByID(ctx, change.RevisionID)
	if err != nil {
		return nil, domain.AsStorage("load revision", err)
	}

	// Approval rewrites the document, so it queues behind saves of it.
	unlock, err := e.revisions.Lock(ctx, change.DocumentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := e.store.Documents().GetByID(ctx, change.DocumentID)
	if err != nil {
		return nil, domain.AsStorage("load document", err)
	}
	oldSlug := doc.Slug

	approved := input.Decision == models.ChangeStatusApproved
	now := e.now()
	err = e.store.ExecTx(ctx, func(txCtx context.Context) error {
		err := e.store.PendingChanges().Resolve(txCtx, change.ID, input.Decision, reviewer.ID, now, input.Comment)
		if err != nil {
			return domain.AsStorage("resolve pending change", err)
		}
		if !approved {
			return nil
		}

		current, err := e.store.Documents().GetByID(txCtx, change.DocumentID)
		if err != nil {
			return domain.AsStorage("load document", err)
		}
		next := *current
		next.Title = rev.Title
		next.Slug = models.Slugify(rev.Title)
		next.Body = rev.Body
		next.UpdatedAt = now
		if err := e.store.Documents().Update(txCtx, &next); err != nil {
			return domain.AsStorage("apply approved revision", err)
		}
		if err := e.store.Revisions().Approve(txCtx, rev.ID, reviewer.ID, now); err != nil {
			return domain.AsStorage("approve revision", err)
		}
		// The author may have been removed since proposing the edit.
		if err := e.store.Actors().IncrementEditCount(txCtx, rev.CreatedBy); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.AsStorage("increment edit count", err)
		}
		doc = &next
		return nil
	})
	if err != nil {
		return nil, domain.AsStorage("review change", err)
	}

	resolved := *change
	resolved.Status = input.Decision
	resolved.ReviewedBy = &reviewer.ID
	resolved.ReviewedAt = &now
	resolved.ReviewComment = &input.Comment
	if approved {
		approver, approvedAt := reviewer.ID, now
		rev.Approved = true
		rev.ApprovedBy = &approver
		rev.ApprovedAt = &approvedAt
	}

	e.invalidateAfterWrite(ctx, true, oldSlug, doc.Slug)
	metrics.ReviewsTotal.WithLabelValues(string(input.Decision)).Inc()
	e.logger.Info("pending change reviewed",
		"change_id", change.ID,
		"document_id", change.DocumentID,
		"slug", doc.Slug,
		"revision", rev.RevisionNumber,
		"decision", input.Decision,
		"reviewer_id", reviewer.ID,
	)

	return &wikiSvc.ReviewResult{
		PendingChange: &resolved,
		Document:      doc,
		Revision:      rev,
	}, nil
}

func alreadyResolved(change *models.PendingChange) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("pending change was already %s", change.Status),
		ResourceType: "pending_change",
		ResourceID:   change.ID,
	}
}

// Revert re-applies an approved historical revision as a new approved
// revision. History is never rewritten.
func (e *engine) Revert(ctx context.Context, req *wikiSvc.RevertRequest) (*wikiSvc.SaveResult, error) {
	if req == nil {
		return nil, domain.NewValidation("request is required")
	}
	input := *req
	input.Slug = strings.TrimSpace(req.Slug)
	input.EditSummary = e.sanitizer.Sanitize(req.EditSummary)
	if err := validateRevertRequest(&input); err != nil {
		return nil, err
	}

	actor, err := e.loadActor(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Reverted to revision #%d", input.RevisionNumber)
	if input.EditSummary != "" {
		summary += ": " + input.EditSummary
	}

	result, err := e.withRetry(ctx, input.Slug, func(fresh bool) (*wikiSvc.SaveResult, error) {
		doc, err := e.resolveTarget(ctx, input.Slug, fresh)
		if err != nil {
			return nil, err
		}

		verdict, err := e.resolveEdit(ctx, actor, doc, doc.Title)
		if err != nil {
			return nil, err
		}
		if !verdict.CanEdit {
			return nil, domain.NewForbidden(verdict.Reason)
		}
		if verdict.NeedsApproval && !actor.Privileged() {
			return nil, domain.NewForbidden("reverting requires moderator rights or ownership of the page")
		}

		target, err := e.store.Revisions().GetByNumber(ctx, doc.ID, input.RevisionNumber)
		if err != nil {
			return nil, domain.AsStorage("load revision", err)
		}
		if !target.Approved {
			return nil, domain.NewValidation(fmt.Sprintf("revision #%d was never approved and cannot be restored", target.RevisionNumber))
		}

		return e.apply(ctx, actor, doc, edit{title: target.Title, body: target.Body, summary: summary}, false)
	})
	if err != nil {
		return nil, err
	}

	metrics.SavesTotal.WithLabelValues(string(result.Outcome)).Inc()
	e.logger.Info("page reverted",
		"slug", result.Document.Slug,
		"document_id", result.Document.ID,
		"reverted_to", input.RevisionNumber,
		"revision", result.Revision.RevisionNumber,
		"actor_id", actor.ID,
	)
	return result, nil
}

// DeleteDocument removes a page with its revisions and pending changes.
// Only administrators may delete.
func (e *engine) DeleteDocument(ctx context.Context, documentID, reason, actorID string) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return domain.NewValidation("document id is required")
	}
	actor, err := e.loadActor(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return domain.NewForbidden("only administrators can delete pages")
	}

	unlock, err := e.revisions.Lock(ctx, documentID)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := e.store.Documents().GetByID(ctx, documentID)
	if err != nil {
		return domain.AsStorage("load document", err)
	}

	err = e.store.ExecTx(ctx, func(txCtx context.Context) error {
		if err := e.store.PendingChanges().DeleteByDocument(txCtx, doc.ID); err != nil {
			return domain.AsStorage("delete pending changes", err)
		}
		if err := e.store.Revisions().DeleteByDocument(txCtx, doc.ID); err != nil {
			return domain.AsStorage("delete revisions", err)
		}
		if err := e.store.Documents().Delete(txCtx, doc.ID); err != nil {
			return domain.AsStorage("delete document", err)
		}
		return nil
	})
	if err != nil {
		return domain.AsStorage("delete page", err)
	}
	e.revisions.Forget(doc.ID)

	e.invalidateAfterWrite(ctx, true, doc.Slug)
	e.invalidate(ctx, categoriesPattern)
	e.logger.Info("document deleted",
		"document_id", doc.ID,
		"slug", doc.Slug,
		"actor_id", actor.ID,
		"reason", e.sanitizer.Sanitize(reason),
	)
	return nil
}
