package middleware

import (
	"net/http"

	"codeatlas/internal/httputil"
)

// Identity extracts the caller's user ID from the X-User-ID header and
// threads it through the request context. Authentication itself happens
// upstream; every store operation below requires an explicit user ID, so
// requests without one are rejected here.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				httputil.RespondError(w, http.StatusBadRequest, "X-User-ID header is required")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}
