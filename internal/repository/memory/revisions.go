package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
)

type revisionRepository struct {
	s *Store
}

func (r *revisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	return r.s.write(ctx, func() (func(), error) {
		if _, ok := r.s.documents[rev.DocumentID]; !ok {
			return nil, domain.NewNotFound("document", rev.DocumentID)
		}
		numbers := r.s.numbers[rev.DocumentID]
		if existingID, taken := numbers[rev.RevisionNumber]; taken {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("revision #%d already exists", rev.RevisionNumber),
				ResourceType: "revision",
				ResourceID:   existingID,
			}
		}
		if rev.ID == "" {
			rev.ID = uuid.NewString()
		}
		rev.CreatedAt = r.s.now(rev.CreatedAt)

		if numbers == nil {
			numbers = make(map[int]string)
			r.s.numbers[rev.DocumentID] = numbers
		}
		numbers[rev.RevisionNumber] = rev.ID
		r.s.revisions[rev.ID] = &revisionRecord{Revision: *rev, seq: r.s.nextSeq()}

		id, number := rev.ID, rev.RevisionNumber
		return func() {
			delete(r.s.revisions, id)
			delete(numbers, number)
		}, nil
	})
}

func (r *revisionRepository) GetByID(ctx context.Context, id string) (*models.Revision, error) {
	var out *models.Revision
	err := r.s.read(ctx, func() error {
		rec, ok := r.s.revisions[id]
		if !ok {
			return domain.NewNotFound("revision", id)
		}
		cp := rec.Revision
		out = &cp
		return nil
	})
	return out, err
}

func (r *revisionRepository) GetByNumber(ctx context.Context, documentID string, number int) (*models.Revision, error) {
	var out *models.Revision
	err := r.s.read(ctx, func() error {
		id, ok := r.s.numbers[documentID][number]
		if !ok {
			return domain.NewNotFound("revision", fmt.Sprintf("#%d", number))
		}
		cp := r.s.revisions[id].Revision
		out = &cp
		return nil
	})
	return out, err
}

func (r *revisionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Revision, error) {
	var out []models.Revision
	err := r.s.read(ctx, func() error {
		out = make([]models.Revision, 0, len(r.s.numbers[documentID]))
		for _, id := range r.s.numbers[documentID] {
			out = append(out, r.s.revisions[id].Revision)
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].RevisionNumber > out[j].RevisionNumber
		})
		return nil
	})
	return out, err
}

func (r *revisionRepository) MaxRevisionNumber(ctx context.Context, documentID string) (int, error) {
	var highest int
	err := r.s.read(ctx, func() error {
		for number := range r.s.numbers[documentID] {
			if number > highest {
				highest = number
			}
		}
		return nil
	})
	return highest, err
}

func (r *revisionRepository) HasApproved(ctx context.Context, documentID string) (bool, error) {
	var approved bool
	err := r.s.read(ctx, func() error {
		for _, id := range r.s.numbers[documentID] {
			if r.s.revisions[id].Approved {
				approved = true
				return nil
			}
		}
		return nil
	})
	return approved, err
}

func (r *revisionRepository) Approve(ctx context.Context, id, approverID string, at time.Time) error {
	return r.s.write(ctx, func() (func(), error) {
		rec, ok := r.s.revisions[id]
		if !ok {
			return nil, domain.NewNotFound("revision", id)
		}
		if rec.Approved {
			return nil, &domain.ConflictError{
				Message:      "revision is already approved",
				ResourceType: "revision",
				ResourceID:   id,
			}
		}
		approver := approverID
		approvedAt := at
		rec.Approved = true
		rec.ApprovedBy = &approver
		rec.ApprovedAt = &approvedAt

		return func() {
			rec.Approved = false
			rec.ApprovedBy = nil
			rec.ApprovedAt = nil
		}, nil
	})
}

func (r *revisionRepository) ListRecent(ctx context.Context, limit int) ([]models.RecentChange, error) {
	var out []models.RecentChange
	err := r.s.read(ctx, func() error {
		records := make([]*revisionRecord, 0, len(r.s.revisions))
		for _, rec := range r.s.revisions {
			records = append(records, rec)
		}
		sort.Slice(records, func(i, j int) bool {
			if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
				return records[i].CreatedAt.After(records[j].CreatedAt)
			}
			return records[i].seq > records[j].seq
		})
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		out = make([]models.RecentChange, 0, len(records))
		for _, rec := range records {
			change := models.RecentChange{Revision: rec.Revision}
			if doc, ok := r.s.documents[rec.DocumentID]; ok {
				change.DocumentSlug = doc.Slug
				change.DocumentTitle = doc.Title
			}
			out = append(out, change)
		}
		return nil
	})
	return out, err
}

func (r *revisionRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.s.write(ctx, func() (func(), error) {
		numbers := r.s.numbers[documentID]
		removed := make(map[string]*revisionRecord, len(numbers))
		for _, id := range numbers {
			removed[id] = r.s.revisions[id]
			delete(r.s.revisions, id)
		}
		delete(r.s.numbers, documentID)

		return func() {
			for id, rec := range removed {
				r.s.revisions[id] = rec
			}
			if numbers != nil {
				r.s.numbers[documentID] = numbers
			}
		}, nil
	})
}
