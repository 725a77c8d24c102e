package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"wikicore/internal/domain"
	"wikicore/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		conflictErr  *domain.ConflictError
		forbiddenErr *domain.ForbiddenError
	)

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, r, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbiddenErr):
		httputil.RespondProblem(w, r, httputil.NewProblem(http.StatusForbidden, err.Error()).
			With("reason", forbiddenErr.Reason))
	case errors.As(err, &conflictErr):
		problem := httputil.NewProblem(http.StatusConflict, conflictErr.Error()).
			With("resource_type", conflictErr.ResourceType)
		if conflictErr.ResourceID != "" {
			problem.With("resource_id", conflictErr.ResourceID)
		}
		httputil.RespondProblem(w, r, problem)
	case errors.Is(err, domain.ErrStorage):
		logger.Error("storage failure",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httputil.RequestID(r.Context()),
		)
		httputil.RespondStorageError(w, r)
	default:
		logger.Error("unexpected error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httputil.RequestID(r.Context()),
		)
		httputil.RespondInternalError(w, r)
	}
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidation(name + " must be an integer")
	}
	return value, nil
}

// respondParseError reports a request body that could not be decoded
func respondParseError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httputil.RespondProblem(w, r, httputil.NewProblem(http.StatusRequestEntityTooLarge, "request body too large").
			With("limit_bytes", tooLarge.Limit))
		return
	}
	httputil.RespondError(w, r, http.StatusBadRequest, err.Error())
}
