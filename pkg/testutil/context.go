package testutil

import (
	"context"
	"net/http"

	"rosterd/internal/platform/middleware"
)

// WithDriver adds an authenticated driver ID to the request context,
// simulating what the auth middleware does for authenticated requests.
func WithDriver(req *http.Request, driverID string) *http.Request {
	return req.WithContext(middleware.WithDriverID(req.Context(), driverID))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
