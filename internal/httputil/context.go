package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	actorIDKey   contextKey = "actorID"
	requestIDKey contextKey = "requestID"
)

// WithActorID adds the authenticated actor ID to the request context
func WithActorID(r *http.Request, actorID string) *http.Request {
	ctx := context.WithValue(r.Context(), actorIDKey, actorID)
	return r.WithContext(ctx)
}

// GetActorID retrieves the actor ID from context, returns empty string if
// the request is anonymous
func GetActorID(r *http.Request) string {
	actorID, _ := r.Context().Value(actorIDKey).(string)
	return actorID
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request ID from context
func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}
