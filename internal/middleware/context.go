package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "user_id"

// SetUserID stamps the authenticated user onto the request context. Only the
// auth middleware (and tests) should call this.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the authenticated user ID, or "" on an unauthenticated
// request. Handlers behind the auth middleware can rely on it being set.
func GetUserID(r *http.Request) string {
	v, _ := r.Context().Value(userIDKey).(string)
	return v
}
