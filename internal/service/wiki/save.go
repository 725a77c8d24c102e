package wiki

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/metrics"
)

// maxSaveAttempts bounds retries after losing a revision-number or page-creation race.
const maxSaveAttempts = 3

const moderatorAuditComment = "auto-approved moderator edit"

// errCreateRace marks a page that appeared between the lookup and the insert.
var errCreateRace = errors.New("page was created concurrently")

// edit is the content a write puts into a revision.
type edit struct {
	title   string
	body    string
	summary string
}

// Save validates the request, resolves permissions and either applies the
// change or queues it for review.
func (e *engine) Save(ctx context.Context, req *wikiSvc.SaveRequest) (*wikiSvc.SaveResult, error) {
	if req == nil {
		return nil, domain.NewValidation("request is required")
	}
	input, err := e.normalizeSaveRequest(req)
	if err != nil {
		return nil, err
	}
	actor, err := e.loadActor(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}

	ed := edit{title: input.Title, body: input.Body, summary: input.EditSummary}
	result, err := e.withRetry(ctx, input.Slug, func(fresh bool) (*wikiSvc.SaveResult, error) {
		return e.saveOnce(ctx, actor, input.Slug, ed, input.ForceApprove, fresh)
	})
	if err != nil {
		return nil, err
	}

	metrics.SavesTotal.WithLabelValues(string(result.Outcome)).Inc()
	e.logger.Info("page saved",
		"slug", result.Document.Slug,
		"document_id", result.Document.ID,
		"revision", result.Revision.RevisionNumber,
		"outcome", result.Outcome,
		"actor_id", actor.ID,
	)
	return result, nil
}

// withRetry reruns attempt after a lost race. Later attempts bypass the
// cache when resolving the target page.
func (e *engine) withRetry(ctx context.Context, slug string, attempt func(fresh bool) (*wikiSvc.SaveResult, error)) (*wikiSvc.SaveResult, error) {
	var (
		result *wikiSvc.SaveResult
		err    error
	)
	for n := 1; ; n++ {
		result, err = attempt(n > 1)
		if err == nil || n == maxSaveAttempts || !isRetryable(err) {
			return result, err
		}
		metrics.RevisionConflicts.Inc()
		e.logger.DebugContext(ctx, "write lost a race, retrying",
			"slug", slug,
			"attempt", n,
			"error", err,
		)
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, errCreateRace) {
		return true
	}
	var conflict *domain.ConflictError
	return errors.As(err, &conflict) && conflict.ResourceType == "revision"
}

func (e *engine) saveOnce(ctx context.Context, actor *models.Actor, slug string, ed edit, force, fresh bool) (*wikiSvc.SaveResult, error) {
	existing, err := e.resolveTarget(ctx, slug, fresh)
	if errors.Is(err, domain.ErrNotFound) {
		verdict := e.resolver.ResolveCreate(ctx, actor, ed.title)
		if !verdict.CanEdit {
			return nil, domain.NewForbidden(verdict.Reason)
		}
		return e.create(ctx, actor, ed, force || !verdict.NeedsApproval)
	}
	if err != nil {
		return nil, err
	}

	verdict, err := e.resolveEdit(ctx, actor, existing, ed.title)
	if err != nil {
		return nil, err
	}
	switch {
	case !verdict.CanEdit:
		return nil, domain.NewForbidden(verdict.Reason)
	case !verdict.NeedsApproval || force:
		return e.apply(ctx, actor, existing, ed, false)
	case actor.IsModerator:
		// Moderators publish directly but leave an approved audit record.
		return e.apply(ctx, actor, existing, ed, true)
	default:
		return e.queue(ctx, actor, existing, ed)
	}
}

// resolveEdit runs the permission resolver against doc, telling it whether
// the page has been published yet.
func (e *engine) resolveEdit(ctx context.Context, actor *models.Actor, doc *models.Document, title string) (wikiSvc.Verdict, error) {
	published, err := e.store.Revisions().HasApproved(ctx, doc.ID)
	if err != nil {
		return wikiSvc.Verdict{}, domain.AsStorage("check approved revisions", err)
	}
	return e.resolver.ResolveEdit(ctx, actor, doc, title, published), nil
}

// resolveTarget finds the page a write addresses; fresh skips the cache.
func (e *engine) resolveTarget(ctx context.Context, slug string, fresh bool) (*models.Document, error) {
	if !fresh {
		return e.lookupDocument(ctx, slug)
	}
	doc, err := e.store.Documents().GetBySlug(ctx, slug)
	if err != nil {
		return nil, domain.AsStorage("get document", err)
	}
	return doc, nil
}

// create inserts a new page with revision #1. When publish is false the
// page body stays empty and revision #1 waits for review.
func (e *engine) create(ctx context.Context, actor *models.Actor, ed edit, publish bool) (*wikiSvc.SaveResult, error) {
	now := e.now()
	doc := &models.Document{
		ID:        uuid.NewString(),
		Title:     ed.title,
		Slug:      models.Slugify(ed.title),
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor.ID,
	}
	if publish {
		doc.Body = ed.body
	}

	res, err := e.revisions.Reserve(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	defer res.Release()

	rev := e.newRevision(actor, ed, now, publish)
	var change *models.PendingChange
	if !publish {
		change = &models.PendingChange{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Status:     models.ChangeStatusPending,
			CreatedAt:  now,
		}
	}

	err = e.store.ExecTx(ctx, func(txCtx context.Context) error {
		if err := e.store.Documents().Create(txCtx, doc); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("%w: %w", errCreateRace, err)
			}
			return domain.AsStorage("create document", err)
		}
		if err := e.revisions.CreateRevision(txCtx, res, rev); err != nil {
			return err
		}
		if !publish {
			change.RevisionID = rev.ID
			if err := e.store.PendingChanges().Create(txCtx, change); err != nil {
				return domain.AsStorage("create pending change", err)
			}
			return nil
		}
		if err := e.store.Actors().IncrementEditCount(txCtx, actor.ID); err != nil {
			return domain.AsStorage("increment edit count", err)
		}
		return nil
	})
	if err != nil {
		return nil, domain.AsStorage("create page", err)
	}
	res.Commit()

	e.invalidateAfterWrite(ctx, !publish, doc.Slug)
	return &wikiSvc.SaveResult{
		Outcome:       outcome(publish),
		Document:      doc,
		Revision:      rev,
		PendingChange: change,
	}, nil
}

// apply writes an approved revision and copies it onto the live document
// in one transaction. audit adds an already-approved pending change so
// moderator edits show up in the review history.
func (e *engine) apply(ctx context.Context, actor *models.Actor, existing *models.Document, ed edit, audit bool) (*wikiSvc.SaveResult, error) {
	now := e.now()
	res, err := e.revisions.Reserve(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	defer res.Release()

	rev := e.newRevision(actor, ed, now, true)
	var (
		change  *models.PendingChange
		updated *models.Document
	)
	err = e.store.ExecTx(ctx, func(txCtx context.Context) error {
		current, err := e.store.Documents().GetByID(txCtx, existing.ID)
		if err != nil {
			return domain.AsStorage("load document", err)
		}
		if err := e.revisions.CreateRevision(txCtx, res, rev); err != nil {
			return err
		}

		// current is a private copy; cached documents are shared and never mutated.
		next := *current
		next.Title = ed.title
		next.Slug = models.Slugify(ed.title)
		next.Body = ed.body
		next.UpdatedAt = now
		if err := e.store.Documents().Update(txCtx, &next); err != nil {
			return domain.AsStorage("apply revision to document", err)
		}

		if audit {
			reviewer, comment := actor.ID, moderatorAuditComment
			reviewedAt := now
			change = &models.PendingChange{
				ID:            uuid.NewString(),
				DocumentID:    existing.ID,
				RevisionID:    rev.ID,
				Status:        models.ChangeStatusApproved,
				ReviewedBy:    &reviewer,
				ReviewedAt:    &reviewedAt,
				ReviewComment: &comment,
				CreatedAt:     now,
			}
			if err := e.store.PendingChanges().Create(txCtx, change); err != nil {
				return domain.AsStorage("record moderator audit", err)
			}
		}

		if err := e.store.Actors().IncrementEditCount(txCtx, actor.ID); err != nil {
			return domain.AsStorage("increment edit count", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, domain.AsStorage("apply edit", err)
	}
	res.Commit()

	e.invalidateAfterWrite(ctx, audit, existing.Slug, updated.Slug)
	return &wikiSvc.SaveResult{
		Outcome:       wikiSvc.SaveOutcomeApplied,
		Document:      updated,
		Revision:      rev,
		PendingChange: change,
	}, nil
}

// queue records an unapproved revision and a pending change. The live
// document is left untouched.
func (e *engine) queue(ctx context.Context, actor *models.Actor, existing *models.Document, ed edit) (*wikiSvc.SaveResult, error) {
	now := e.now()
	res, err := e.revisions.Reserve(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	defer res.Release()

	rev := e.newRevision(actor, ed, now, false)
	change := &models.PendingChange{
		ID:         uuid.NewString(),
		DocumentID: existing.ID,
		Status:     models.ChangeStatusPending,
		CreatedAt:  now,
	}
	err = e.store.ExecTx(ctx, func(txCtx context.Context) error {
		if err := e.revisions.CreateRevision(txCtx, res, rev); err != nil {
			return err
		}
		change.RevisionID = rev.ID
		if err := e.store.PendingChanges().Create(txCtx, change); err != nil {
			return domain.AsStorage("create pending change", err)
		}
		return nil
	})
	if err != nil {
		return nil, domain.AsStorage("queue edit", err)
	}
	res.Commit()

	e.invalidateAfterWrite(ctx, true, existing.Slug)
	doc := *existing
	return &wikiSvc.SaveResult{
		Outcome:       wikiSvc.SaveOutcomeQueued,
		Document:      &doc,
		Revision:      rev,
		PendingChange: change,
	}, nil
}

func (e *engine) newRevision(actor *models.Actor, ed edit, now time.Time, approved bool) *models.Revision {
	rev := &models.Revision{
		ID:          uuid.NewString(),
		Title:       ed.title,
		Body:        ed.body,
		EditSummary: ed.summary,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
	}
	if approved {
		approver, approvedAt := actor.ID, now
		rev.Approved = true
		rev.ApprovedBy = &approver
		rev.ApprovedAt = &approvedAt
	}
	return rev
}

func outcome(applied bool) wikiSvc.SaveOutcome {
	if applied {
		return wikiSvc.SaveOutcomeApplied
	}
	return wikiSvc.SaveOutcomeQueued
}
