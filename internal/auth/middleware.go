package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can set or read the user id.
type contextKey string

const userIDKey contextKey = "userID"

// AuthorizeFunc turns a bearer token into a user id. Both
// TokenService.Validate and service.AuthService.Authorize fit.
type AuthorizeFunc func(token string) (int64, error)

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the authenticated user id in the request context otherwise.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(authorize AuthorizeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, authorize)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="grocery-tracker"`)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
// Handler tests use it to skip the token round-trip.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, or (0, false) when
// the request did not pass through RequireAuth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

var errNoBearer = errors.New("auth: missing bearer token")

// extractUserID reads "Authorization: Bearer <jwt>" and validates the token.
// The scheme is matched case-insensitively (RFC 7235).
func extractUserID(r *http.Request, authorize AuthorizeFunc) (int64, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return 0, errNoBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errNoBearer
	}
	return authorize(token)
}
