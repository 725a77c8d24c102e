package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
)

type documentRepository struct {
	s *Store
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.s.write(ctx, func() (func(), error) {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if _, exists := r.s.documents[doc.ID]; exists {
			return nil, &domain.ConflictError{
				Message:      "document id already exists",
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		if existingID, taken := r.s.slugs[doc.Slug]; taken {
			return nil, &domain.ConflictError{
				Message:      "a page with slug '" + doc.Slug + "' already exists",
				ResourceType: "document",
				ResourceID:   existingID,
			}
		}
		doc.CreatedAt = r.s.now(doc.CreatedAt)
		doc.UpdatedAt = r.s.now(doc.UpdatedAt)

		stored := *doc
		r.s.documents[doc.ID] = &stored
		r.s.slugs[doc.Slug] = doc.ID

		id, slug := doc.ID, doc.Slug
		return func() {
			delete(r.s.documents, id)
			delete(r.s.slugs, slug)
		}, nil
	})
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var out *models.Document
	err := r.s.read(ctx, func() error {
		doc, ok := r.s.documents[id]
		if !ok {
			return domain.NewNotFound("document", id)
		}
		cp := *doc
		out = &cp
		return nil
	})
	return out, err
}

func (r *documentRepository) GetBySlug(ctx context.Context, slug string) (*models.Document, error) {
	var out *models.Document
	err := r.s.read(ctx, func() error {
		id, ok := r.s.slugs[slug]
		if !ok {
			return domain.NewNotFound("page", slug)
		}
		cp := *r.s.documents[id]
		out = &cp
		return nil
	})
	return out, err
}

func (r *documentRepository) Update(ctx context.Context, doc *models.Document) error {
	return r.s.write(ctx, func() (func(), error) {
		current, ok := r.s.documents[doc.ID]
		if !ok {
			return nil, domain.NewNotFound("document", doc.ID)
		}
		if doc.Slug != current.Slug {
			if existingID, taken := r.s.slugs[doc.Slug]; taken && existingID != doc.ID {
				return nil, &domain.ConflictError{
					Message:      "a page with slug '" + doc.Slug + "' already exists",
					ResourceType: "document",
					ResourceID:   existingID,
				}
			}
		}

		previous := *current
		doc.UpdatedAt = r.s.now(doc.UpdatedAt)
		current.Title = doc.Title
		current.Slug = doc.Slug
		current.Body = doc.Body
		current.Protected = doc.Protected
		current.UpdatedAt = doc.UpdatedAt
		if previous.Slug != current.Slug {
			delete(r.s.slugs, previous.Slug)
			r.s.slugs[current.Slug] = current.ID
		}

		return func() {
			if previous.Slug != current.Slug {
				delete(r.s.slugs, current.Slug)
				r.s.slugs[previous.Slug] = previous.ID
			}
			*current = previous
		}, nil
	})
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func() (func(), error) {
		doc, ok := r.s.documents[id]
		if !ok {
			return nil, domain.NewNotFound("document", id)
		}
		delete(r.s.documents, id)
		delete(r.s.slugs, doc.Slug)

		var memberOf []string
		for categoryID, docs := range r.s.members {
			if _, ok := docs[id]; ok {
				delete(docs, id)
				memberOf = append(memberOf, categoryID)
			}
		}

		return func() {
			r.s.documents[id] = doc
			r.s.slugs[doc.Slug] = id
			for _, categoryID := range memberOf {
				r.s.members[categoryID][id] = struct{}{}
			}
		}, nil
	})
}

func (r *documentRepository) ListSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	err := r.s.read(ctx, func() error {
		slugs = make([]string, 0, len(r.s.slugs))
		for slug := range r.s.slugs {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)
		return nil
	})
	return slugs, err
}

func (r *documentRepository) Search(ctx context.Context, query string, limit int) ([]models.Document, error) {
	needle := strings.ToLower(query)
	var results []models.Document
	err := r.s.read(ctx, func() error {
		results = make([]models.Document, 0)
		for _, doc := range r.s.documents {
			if strings.Contains(strings.ToLower(doc.Title), needle) ||
				strings.Contains(strings.ToLower(doc.Body), needle) {
				results = append(results, *doc)
			}
		}
		sort.Slice(results, func(i, j int) bool {
			return results[i].Title < results[j].Title
		})
		if limit > 0 && len(results) > limit {
			results = results[:limit]
		}
		return nil
	})
	return results, err
}

func (r *documentRepository) IncrementViews(ctx context.Context, id string, delta int64) error {
	return r.s.write(ctx, func() (func(), error) {
		doc, ok := r.s.documents[id]
		if !ok {
			return nil, domain.NewNotFound("document", id)
		}
		doc.ViewCount += delta
		return func() { doc.ViewCount -= delta }, nil
	})
}
