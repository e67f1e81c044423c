package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/models"
)

// Authenticator resolves a bearer token to the current, non-blocked user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth rejects requests without a valid token with 401, and requests
// from blocked accounts with 403.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				writeJSONError(w, apperr.Status(err), apperr.Message(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "No token provided, authorization denied")
			return
		}
		if !user.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "Access denied. Admin only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user stored by RequireAuth.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// OriginAllowed compares an Origin header with the configured client URL.
func OriginAllowed(allowed, origin string) bool {
	if allowed == "*" {
		return true
	}
	return strings.EqualFold(strings.TrimSuffix(allowed, "/"), strings.TrimSuffix(origin, "/"))
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
