package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"wikicore/internal/httputil"
	"wikicore/internal/metrics"
)

// headerWatcher notes whether the handler has started its response.
type headerWatcher struct {
	http.ResponseWriter
	started bool
}

func (w *headerWatcher) WriteHeader(status int) {
	w.started = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *headerWatcher) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

func (w *headerWatcher) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Recovery turns a handler panic into an opaque 500 problem carrying the
// request ID. If the handler already began its response the connection is
// aborted instead, since a second status line cannot be sent.
// http.ErrAbortHandler passes through untouched.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			watcher := &headerWatcher{ResponseWriter: w}
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				metrics.HTTPPanics.Inc()
				logger.ErrorContext(r.Context(), "handler panicked",
					"panic", recovered,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", httputil.RequestID(r.Context()),
					"response_started", watcher.started,
					"stack", string(debug.Stack()),
				)
				if watcher.started {
					panic(http.ErrAbortHandler)
				}
				httputil.RespondInternalError(w, r)
			}()

			next.ServeHTTP(watcher, r)
		})
	}
}
