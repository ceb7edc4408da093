package httputil

import (
	"context"
	"net/http"
)

// contextKey is unexported so request-context entries cannot collide with
// keys from other packages.
type contextKey string

const userIDKey contextKey = "userID"

// WithUserID returns a request whose context carries the caller's user ID.
// Set once by the identity middleware; everything below reads it via
// GetUserID.
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID returns the user ID stored on the request context, or "" when
// the request never passed through the identity middleware.
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}
