package wiki

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"wikicore/internal/config"
	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
)

// forbiddenTitleChars collide with the link and category markup of page bodies.
const forbiddenTitleChars = "[]{}|#<>"

// normalizeSaveRequest trims the request, sanitizes the edit summary and
// validates the result. The returned request is a copy.
func (e *engine) normalizeSaveRequest(req *wikiSvc.SaveRequest) (*wikiSvc.SaveRequest, error) {
	normalized := *req
	normalized.Title = strings.TrimSpace(req.Title)
	normalized.Slug = strings.TrimSpace(req.Slug)
	normalized.EditSummary = e.sanitizer.Sanitize(req.EditSummary)
	if normalized.Slug == "" {
		normalized.Slug = models.Slugify(normalized.Title)
	}

	err := validation.ValidateStruct(&normalized,
		validation.Field(&normalized.Title,
			validation.Required,
			validation.RuneLength(1, config.MaxTitleLength),
			validation.By(validateTitle),
		),
		validation.Field(&normalized.EditSummary,
			validation.Required.Error("an edit summary is required"),
			validation.RuneLength(1, config.MaxEditSummaryLength),
		),
		validation.Field(&normalized.Body,
			validation.Length(0, config.MaxBodyBytes),
		),
	)
	if err != nil {
		return nil, domain.NewValidation(err.Error())
	}
	return &normalized, nil
}

func validateReviewRequest(req *wikiSvc.ReviewRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ChangeID, validation.Required),
		validation.Field(&req.Decision,
			validation.Required,
			validation.In(models.ChangeStatusApproved, models.ChangeStatusRejected).
				Error("must be approved or rejected"),
		),
		validation.Field(&req.Comment, validation.RuneLength(0, config.MaxEditSummaryLength)),
	)
	if err != nil {
		return domain.NewValidation(err.Error())
	}
	return nil
}

func validateRevertRequest(req *wikiSvc.RevertRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Slug, validation.Required),
		validation.Field(&req.RevisionNumber, validation.Required, validation.Min(1)),
		validation.Field(&req.EditSummary, validation.RuneLength(0, config.MaxEditSummaryLength)),
	)
	if err != nil {
		return domain.NewValidation(err.Error())
	}
	return nil
}

// validateTitle rejects markup characters and titles without a slug.
func validateTitle(value interface{}) error {
	title, ok := value.(string)
	if !ok {
		return errors.New("title must be a string")
	}
	if i := strings.IndexAny(title, forbiddenTitleChars); i >= 0 {
		return errors.New("title cannot contain '" + title[i:i+1] + "'")
	}
	if models.Slugify(title) == "" {
		return errors.New("title must contain at least one letter or digit")
	}
	return nil
}
