package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikicore/internal/cache"
	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/httputil"
	"wikicore/internal/middleware"
	"wikicore/internal/repository/memory"
	serviceWiki "wikicore/internal/service/wiki"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer wires a memory-backed engine behind the dev-header auth
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	for _, actor := range []*models.Actor{
		{ID: "ana", Username: "ana"},
		{ID: "bob", Username: "bob"},
		{ID: "root", Username: "root", IsAdmin: true},
		{ID: "mod", Username: "mod", IsModerator: true},
	} {
		require.NoError(t, store.Actors().Upsert(ctx, actor))
	}

	engine := serviceWiki.NewEngine(
		store,
		cache.New(),
		serviceWiki.NewPermissionResolver(serviceWiki.ResolverConfig{PersonalNamespacePrefix: "User:"}),
		serviceWiki.Config{},
		testLogger(),
	)
	t.Cleanup(engine.Close)

	return withEngine(engine)
}

func withEngine(engine wikiSvc.Engine) http.Handler {
	mux := http.NewServeMux()
	NewWikiHandler(engine, testLogger()).Register(mux)
	return middleware.AuthMiddleware(nil, testLogger())(mux)
}

func do(t *testing.T, h http.Handler, method, target, actor string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if actor != "" {
		req.Header.Set(middleware.DevActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func problem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p map[string]interface{}
	decode(t, rec, &p)
	return p
}

func TestWikiHandler_EditReviewFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/api/pages/userana", "ana", map[string]string{
		"title": "User:ana", "body": "hi", "edit_summary": "first",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var applied wikiSvc.SaveResult
	decode(t, rec, &applied)
	assert.Equal(t, wikiSvc.SaveOutcomeApplied, applied.Outcome)
	assert.Equal(t, 1, applied.Revision.RevisionNumber)

	rec = do(t, srv, http.MethodPut, "/api/pages/userana", "bob", map[string]string{
		"title": "User:ana", "body": "hi from bob", "edit_summary": "tweak",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var queued wikiSvc.SaveResult
	decode(t, rec, &queued)
	assert.Equal(t, wikiSvc.SaveOutcomeQueued, queued.Outcome)
	require.NotNil(t, queued.PendingChange)

	rec = do(t, srv, http.MethodGet, "/api/pending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending models.PendingChanges
	decode(t, rec, &pending)
	require.Len(t, pending.Changes, 1)
	assert.Equal(t, "bob", pending.Changes[0].Author)

	rec = do(t, srv, http.MethodPost, "/api/pending/"+queued.PendingChange.ID+"/review", "mod", map[string]string{
		"decision": "approved", "comment": "ok",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/pages/userana", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc models.Document
	decode(t, rec, &doc)
	assert.Equal(t, "hi from bob", doc.Body)

	rec = do(t, srv, http.MethodPost, "/api/pending/"+queued.PendingChange.ID+"/review", "mod", map[string]string{
		"decision": "rejected",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "pending_change", problem(t, rec)["resource_type"])

	rec = do(t, srv, http.MethodGet, "/api/pages/userana/history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history models.History
	decode(t, rec, &history)
	assert.Len(t, history.Revisions, 2)
}

func TestWikiHandler_RevertAndDelete(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{"one", "two"} {
		rec := do(t, srv, http.MethodPut, "/api/pages/changelog", "root", map[string]string{
			"title": "Changelog", "body": body, "edit_summary": "update",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := do(t, srv, http.MethodPost, "/api/pages/changelog/revert", "root", map[string]interface{}{
		"revision_number": 1, "edit_summary": "oops",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reverted wikiSvc.SaveResult
	decode(t, rec, &reverted)
	assert.Equal(t, 3, reverted.Revision.RevisionNumber)
	assert.Equal(t, "one", reverted.Document.Body)

	rec = do(t, srv, http.MethodDelete, "/api/documents/"+reverted.Document.ID+"?reason=spam", "mod", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, problem(t, rec)["reason"])

	rec = do(t, srv, http.MethodDelete, "/api/documents/"+reverted.Document.ID+"?reason=spam", "root", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/pages/changelog", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWikiHandler_Reads(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPut, "/api/pages/rules", "root", map[string]string{
		"title": "Rules", "body": "be kind", "edit_summary": "init",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/pages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slugs models.SlugList
	decode(t, rec, &slugs)
	assert.Equal(t, []string{"rules"}, slugs.Slugs)

	rec = do(t, srv, http.MethodGet, "/api/pages/search?q=kind", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results models.SearchResults
	decode(t, rec, &results)
	require.Len(t, results.Documents, 1)

	rec = do(t, srv, http.MethodGet, "/api/recent?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.Documents)

	rec = do(t, srv, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWikiHandler_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		actor  string
		body   interface{}
		want   int
	}{
		{"missing page", http.MethodGet, "/api/pages/nope", "", nil, http.StatusNotFound},
		{"anonymous save", http.MethodPut, "/api/pages/x", "", map[string]string{"title": "X", "body": "b", "edit_summary": "s"}, http.StatusUnauthorized},
		{"unknown actor", http.MethodPut, "/api/pages/x", "ghost", map[string]string{"title": "X", "body": "b", "edit_summary": "s"}, http.StatusUnauthorized},
		{"missing summary", http.MethodPut, "/api/pages/x", "ana", map[string]string{"title": "X", "body": "b"}, http.StatusBadRequest},
		{"unknown field", http.MethodPut, "/api/pages/x", "ana", map[string]string{"title": "X", "bogus": "1"}, http.StatusBadRequest},
		{"malformed json", http.MethodPut, "/api/pages/x", "ana", "{", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/recent?limit=abc", "", nil, http.StatusBadRequest},
		{"bad decision", http.MethodPost, "/api/pending/123/review", "mod", map[string]string{"decision": "maybe"}, http.StatusBadRequest},
		{"review by regular user", http.MethodPost, "/api/pending/123/review", "ana", map[string]string{"decision": "approved"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.target, tt.actor, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.EqualValues(t, tt.want, problem(t, rec)["status"])
		})
	}
}

func TestWikiHandler_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t)
	huge := `{"title":"Big","edit_summary":"s","body":"` + strings.Repeat("a", 3<<20) + `"}`

	rec := do(t, srv, http.MethodPut, "/api/pages/big", "root", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, problem(t, rec), "limit_bytes")
}

// stubEngine fails every call it overrides with err
type stubEngine struct {
	wikiSvc.Engine
	err error
}

func (s *stubEngine) GetStats(context.Context) (*models.Stats, error) { return nil, s.err }

func TestWikiHandler_StorageFailureIsOpaque(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	srv := withEngine(&stubEngine{err: domain.AsStorage("get stats", cause)})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req = req.WithContext(httputil.WithRequestID(req.Context(), "6f1c2a9e-8a44-4c47-9b1e-3f0d1c6a2b7d"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	body := problem(t, rec)
	assert.Equal(t, httputil.StorageFailureDetail, body["detail"])
	assert.Equal(t, "urn:uuid:6f1c2a9e-8a44-4c47-9b1e-3f0d1c6a2b7d", body["instance"])
}

func TestWikiHandler_UnexpectedErrorIs500(t *testing.T) {
	srv := withEngine(&stubEngine{err: errors.New("boom")})

	rec := do(t, srv, http.MethodGet, "/api/stats", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Equal(t, httputil.InternalFailureDetail, problem(t, rec)["detail"])
}
