package handler

import (
	"log/slog"
	"net/http"
	"time"

	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/httputil"
)

// WikiHandler handles wiki HTTP requests
type WikiHandler struct {
	engine wikiSvc.Engine
	logger *slog.Logger
}

// NewWikiHandler creates a new wiki handler
func NewWikiHandler(engine wikiSvc.Engine, logger *slog.Logger) *WikiHandler {
	return &WikiHandler{
		engine: engine,
		logger: logger,
	}
}

// Register adds every wiki route to mux
func (h *WikiHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/pages", h.ListSlugs)
	mux.HandleFunc("GET /api/pages/search", h.Search)
	mux.HandleFunc("GET /api/pages/{slug}", h.GetPage)
	mux.HandleFunc("GET /api/pages/{slug}/history", h.GetHistory)
	mux.HandleFunc("PUT /api/pages/{slug}", h.SavePage)
	mux.HandleFunc("POST /api/pages/{slug}/revert", h.Revert)
	mux.HandleFunc("DELETE /api/documents/{id}", h.DeleteDocument)

	mux.HandleFunc("GET /api/pending", h.ListPending)
	mux.HandleFunc("POST /api/pending/{id}/review", h.Review)

	mux.HandleFunc("GET /api/recent", h.RecentChanges)
	mux.HandleFunc("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /api/categories", h.Categories)
}

// ListSlugs returns every page slug
// GET /api/pages
func (h *WikiHandler) ListSlugs(w http.ResponseWriter, r *http.Request) {
	slugs, err := h.engine.ListAllSlugs(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, slugs)
}

// Search performs a substring search
// GET /api/pages/search?q=
func (h *WikiHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.engine.SearchDocuments(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, results)
}

// GetPage returns the live document
// GET /api/pages/{slug}
func (h *WikiHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.GetDocument(r.Context(), r.PathValue("slug"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// GetHistory returns the revisions of a page, newest first
// GET /api/pages/{slug}/history
func (h *WikiHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.engine.GetHistory(r.Context(), r.PathValue("slug"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, history)
}

// SavePage proposes a change to a page
// PUT /api/pages/{slug}
// Returns 200 when applied, 202 when queued for review
func (h *WikiHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	var req wikiSvc.SaveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondParseError(w, r, err)
		return
	}
	req.Slug = r.PathValue("slug")
	req.ActorID = httputil.GetActorID(r)

	result, err := h.engine.Save(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == wikiSvc.SaveOutcomeQueued {
		status = http.StatusAccepted
	}
	httputil.RespondJSON(w, status, result)
}

// Revert restores a page to an approved revision
// POST /api/pages/{slug}/revert
func (h *WikiHandler) Revert(w http.ResponseWriter, r *http.Request) {
	var req wikiSvc.RevertRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondParseError(w, r, err)
		return
	}
	req.Slug = r.PathValue("slug")
	req.ActorID = httputil.GetActorID(r)

	result, err := h.engine.Revert(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// DeleteDocument removes a page with its history (admin only)
// DELETE /api/documents/{id}?reason=
func (h *WikiHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := h.engine.DeleteDocument(r.Context(), r.PathValue("id"), r.URL.Query().Get("reason"), httputil.GetActorID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPending returns the review queue
// GET /api/pending
func (h *WikiHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.engine.GetPendingChanges(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, pending)
}

// Review approves or rejects a pending change
// POST /api/pending/{id}/review
func (h *WikiHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req wikiSvc.ReviewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondParseError(w, r, err)
		return
	}
	req.ChangeID = r.PathValue("id")
	req.ReviewerID = httputil.GetActorID(r)

	result, err := h.engine.Review(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// RecentChanges returns the newest revisions
// GET /api/recent?limit=
func (h *WikiHandler) RecentChanges(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	recent, err := h.engine.GetRecentChanges(r.Context(), limit)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, recent)
}

// Stats returns aggregate counters
// GET /api/stats
func (h *WikiHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetStats(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, stats)
}

// Categories returns all categories
// GET /api/categories
func (h *WikiHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.engine.ListCategories(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, categories)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *WikiHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
