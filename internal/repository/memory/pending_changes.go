package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
)

type pendingChangeRepository struct {
	s *Store
}

func (r *pendingChangeRepository) Create(ctx context.Context, change *models.PendingChange) error {
	return r.s.write(ctx, func() (func(), error) {
		if _, ok := r.s.revisions[change.RevisionID]; !ok {
			return nil, domain.NewNotFound("revision", change.RevisionID)
		}
		if change.Status == models.ChangeStatusPending {
			for _, existing := range r.s.changes {
				if existing.RevisionID == change.RevisionID && existing.Status == models.ChangeStatusPending {
					return nil, &domain.ConflictError{
						Message:      "revision already has an unresolved pending change",
						ResourceType: "pending_change",
						ResourceID:   existing.ID,
					}
				}
			}
		}
		if change.ID == "" {
			change.ID = uuid.NewString()
		}
		change.CreatedAt = r.s.now(change.CreatedAt)

		rec := &changeRecord{PendingChange: *change, seq: r.s.nextSeq()}
		clearDisplayFields(&rec.PendingChange)
		r.s.changes[change.ID] = rec

		id := change.ID
		return func() { delete(r.s.changes, id) }, nil
	})
}

func (r *pendingChangeRepository) GetByID(ctx context.Context, id string) (*models.PendingChange, error) {
	var out *models.PendingChange
	err := r.s.read(ctx, func() error {
		rec, ok := r.s.changes[id]
		if !ok {
			return domain.NewNotFound("pending change", id)
		}
		cp := rec.PendingChange
		out = &cp
		return nil
	})
	return out, err
}

func (r *pendingChangeRepository) ListPending(ctx context.Context) ([]models.PendingChange, error) {
	var out []models.PendingChange
	err := r.s.read(ctx, func() error {
		records := make([]*changeRecord, 0)
		for _, rec := range r.s.changes {
			if rec.Status == models.ChangeStatusPending {
				records = append(records, rec)
			}
		}
		sort.Slice(records, func(i, j int) bool {
			if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
				return records[i].CreatedAt.Before(records[j].CreatedAt)
			}
			return records[i].seq < records[j].seq
		})

		out = make([]models.PendingChange, 0, len(records))
		for _, rec := range records {
			change := rec.PendingChange
			if doc, ok := r.s.documents[change.DocumentID]; ok {
				change.DocumentTitle = doc.Title
				change.DocumentSlug = doc.Slug
			}
			if rev, ok := r.s.revisions[change.RevisionID]; ok {
				change.RevisionNumber = rev.RevisionNumber
				change.EditSummary = rev.EditSummary
				change.Author = rev.CreatedBy
				if actor, ok := r.s.actors[rev.CreatedBy]; ok {
					change.Author = actor.Username
				}
			}
			out = append(out, change)
		}
		return nil
	})
	return out, err
}

func (r *pendingChangeRepository) Resolve(ctx context.Context, id string, status models.ChangeStatus, reviewerID string, at time.Time, comment string) error {
	return r.s.write(ctx, func() (func(), error) {
		rec, ok := r.s.changes[id]
		if !ok {
			return nil, domain.NewNotFound("pending change", id)
		}
		if rec.Status != models.ChangeStatusPending {
			return nil, &domain.ConflictError{
				Message:      "pending change was already " + string(rec.Status),
				ResourceType: "pending_change",
				ResourceID:   id,
			}
		}

		previous := rec.PendingChange
		reviewer, reviewedAt, note := reviewerID, at, comment
		rec.Status = status
		rec.ReviewedBy = &reviewer
		rec.ReviewedAt = &reviewedAt
		rec.ReviewComment = &note

		return func() { rec.PendingChange = previous }, nil
	})
}

func (r *pendingChangeRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.s.write(ctx, func() (func(), error) {
		removed := make(map[string]*changeRecord)
		for id, rec := range r.s.changes {
			if rec.DocumentID == documentID {
				removed[id] = rec
				delete(r.s.changes, id)
			}
		}
		return func() {
			for id, rec := range removed {
				r.s.changes[id] = rec
			}
		}, nil
	})
}

func clearDisplayFields(change *models.PendingChange) {
	change.DocumentTitle = ""
	change.DocumentSlug = ""
	change.RevisionNumber = 0
	change.Author = ""
	change.EditSummary = ""
}
