package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"wikicore/internal/auth"
	"wikicore/internal/httputil"
)

// DevActorHeader carries the acting user when no JWT verifier is configured.
const DevActorHeader = "X-Actor-ID"

// AuthMiddleware resolves the acting user from a Bearer token. Requests
// without credentials continue anonymously; the engine decides which
// operations need an actor. A token that fails verification is rejected.
//
// With a nil verifier the DevActorHeader is trusted as-is. Never run
// that way in production.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if actorID := strings.TrimSpace(r.Header.Get(DevActorHeader)); actorID != "" {
					r = httputil.WithActorID(r, actorID)
				}
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, r, http.StatusUnauthorized, "malformed Authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed",
					"path", r.URL.Path,
					"request_id", httputil.RequestID(r.Context()),
				)
				httputil.RespondError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithActorID(r, claims.ActorID()))
		})
	}
}
