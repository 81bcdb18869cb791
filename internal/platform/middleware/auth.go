package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator validates an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims carries the authenticated driver identity.
type TokenClaims struct {
	DriverID string
	Email    string
}

type contextKeyDriverID struct{}
type contextKeyDriverEmail struct{}

// GetDriverID retrieves the authenticated driver ID from the context.
func GetDriverID(ctx context.Context) string {
	id, ok := ctx.Value(contextKeyDriverID{}).(string)
	if !ok {
		return ""
	}
	return id
}

// GetDriverEmail retrieves the authenticated driver's email from the context.
func GetDriverEmail(ctx context.Context) string {
	email, ok := ctx.Value(contextKeyDriverEmail{}).(string)
	if !ok {
		return ""
	}
	return email
}

// WithDriverID injects a driver identity into the context. Used by tests and
// by internal tooling that bypasses HTTP auth.
func WithDriverID(ctx context.Context, driverID string) context.Context {
	return context.WithValue(ctx, contextKeyDriverID{}, driverID)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// driver identity in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, contextKeyDriverID{}, claims.DriverID)
			ctx = context.WithValue(ctx, contextKeyDriverEmail{}, claims.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
