package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Client-facing details for failures whose cause stays in the logs.
const (
	StorageFailureDetail  = "the wiki is temporarily unable to save or load data, please try again"
	InternalFailureDetail = "internal server error"
)

// StorageRetryAfter is advertised in Retry-After on storage failures.
const StorageRetryAfter = 5 * time.Second

const problemContentType = "application/problem+json"

// RespondJSON writes data as JSON. The body is encoded before any header
// goes out, so an encoding failure still yields a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Default().Error("encode response", "error", err)
		writeProblem(w, NewProblem(http.StatusInternalServerError, "failed to encode response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// Problem is an RFC 7807 problem document. Extensions are written as
// top-level members next to the standard ones.
type Problem struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]any
}

// NewProblem builds a problem for status with the matching type URI.
func NewProblem(status int, detail string) *Problem {
	return &Problem{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// With adds an extension member. Standard member names are ignored.
func (p *Problem) With(key string, value any) *Problem {
	switch key {
	case "type", "title", "status", "detail", "instance":
		return p
	}
	if p.Extensions == nil {
		p.Extensions = make(map[string]any)
	}
	p.Extensions[key] = value
	return p
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}

// RespondProblem writes p for r. The occurrence is identified by the
// request ID so a client report can be matched to the server logs.
func RespondProblem(w http.ResponseWriter, r *http.Request, p *Problem) {
	if p.Instance == "" {
		if id := RequestID(r.Context()); id != "" {
			p.Instance = "urn:uuid:" + id
		}
	}
	writeProblem(w, p)
}

// RespondError writes a problem with no extensions.
func RespondError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	RespondProblem(w, r, NewProblem(status, detail))
}

// RespondStorageError tells the client the store is unavailable and when
// to try again. The underlying error is never echoed.
func RespondStorageError(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", strconv.Itoa(int(StorageRetryAfter/time.Second)))
	RespondProblem(w, r, NewProblem(http.StatusServiceUnavailable, StorageFailureDetail))
}

// RespondInternalError writes an opaque 500.
func RespondInternalError(w http.ResponseWriter, r *http.Request) {
	RespondError(w, r, http.StatusInternalServerError, InternalFailureDetail)
}

func writeProblem(w http.ResponseWriter, p *Problem) {
	payload, err := json.Marshal(p)
	if err != nil {
		// An extension value did not encode; drop them all.
		p.Extensions = nil
		payload, _ = json.Marshal(p)
	}

	w.Header().Set("Content-Type", problemContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(p.Status)
	_, _ = w.Write(payload)
}

// problemType returns the RFC 9110 section describing status
func problemType(status int) string {
	const base = "https://www.rfc-editor.org/rfc/rfc9110#"
	switch status {
	case http.StatusBadRequest:
		return base + "status.400"
	case http.StatusUnauthorized:
		return base + "status.401"
	case http.StatusForbidden:
		return base + "status.403"
	case http.StatusNotFound:
		return base + "status.404"
	case http.StatusConflict:
		return base + "status.409"
	case http.StatusRequestEntityTooLarge:
		return base + "status.413"
	case http.StatusInternalServerError:
		return base + "status.500"
	case http.StatusServiceUnavailable:
		return base + "status.503"
	default:
		return "about:blank"
	}
}
