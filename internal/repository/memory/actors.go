package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
)

type actorRepository struct {
	s *Store
}

func (r *actorRepository) GetByID(ctx context.Context, id string) (*models.Actor, error) {
	var out *models.Actor
	err := r.s.read(ctx, func() error {
		actor, ok := r.s.actors[id]
		if !ok {
			return domain.NewNotFound("actor", id)
		}
		cp := *actor
		out = &cp
		return nil
	})
	return out, err
}

func (r *actorRepository) Upsert(ctx context.Context, actor *models.Actor) error {
	return r.s.write(ctx, func() (func(), error) {
		if actor.ID == "" {
			actor.ID = uuid.NewString()
		}
		previous, existed := r.s.actors[actor.ID]
		stored := *actor
		if existed {
			// Edit counts are owned by the store.
			stored.EditCount = previous.EditCount
		}
		r.s.actors[actor.ID] = &stored

		id := actor.ID
		return func() {
			if existed {
				r.s.actors[id] = previous
			} else {
				delete(r.s.actors, id)
			}
		}, nil
	})
}

func (r *actorRepository) IncrementEditCount(ctx context.Context, id string) error {
	return r.s.write(ctx, func() (func(), error) {
		actor, ok := r.s.actors[id]
		if !ok {
			return nil, domain.NewNotFound("actor", id)
		}
		actor.EditCount++
		return func() { actor.EditCount-- }, nil
	})
}

type categoryRepository struct {
	s *Store
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.s.read(ctx, func() error {
		out = make([]models.Category, 0, len(r.s.categories))
		for id, category := range r.s.categories {
			cp := *category
			cp.MemberCount = len(r.s.members[id])
			out = append(out, cp)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (r *categoryRepository) Upsert(ctx context.Context, category *models.Category) error {
	return r.s.write(ctx, func() (func(), error) {
		for id, existing := range r.s.categories {
			if existing.Name == category.Name {
				previous := *existing
				existing.Description = category.Description
				category.ID = id
				return func() { *existing = previous }, nil
			}
		}
		if category.ID == "" {
			category.ID = uuid.NewString()
		}
		stored := *category
		stored.MemberCount = 0
		r.s.categories[category.ID] = &stored

		id := category.ID
		return func() { delete(r.s.categories, id) }, nil
	})
}

func (r *categoryRepository) AddDocument(ctx context.Context, categoryID, documentID string) error {
	return r.s.write(ctx, func() (func(), error) {
		if _, ok := r.s.categories[categoryID]; !ok {
			return nil, domain.NewNotFound("category", categoryID)
		}
		if _, ok := r.s.documents[documentID]; !ok {
			return nil, domain.NewNotFound("document", documentID)
		}
		docs := r.s.members[categoryID]
		if docs == nil {
			docs = make(map[string]struct{})
			r.s.members[categoryID] = docs
		}
		if _, already := docs[documentID]; already {
			return nil, nil
		}
		docs[documentID] = struct{}{}
		return func() { delete(docs, documentID) }, nil
	})
}

type statsRepository struct {
	s *Store
}

func (r *statsRepository) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}
	err := r.s.read(ctx, func() error {
		stats.Documents = len(r.s.documents)
		stats.Revisions = len(r.s.revisions)
		stats.Actors = len(r.s.actors)
		for _, rec := range r.s.changes {
			if rec.Status == models.ChangeStatusPending {
				stats.PendingChanges++
			}
		}
		for _, doc := range r.s.documents {
			stats.TotalViews += doc.ViewCount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
