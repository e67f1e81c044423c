package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuthenticator map[string]*models.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.E(apperr.ErrUnauthorized, "not authorized, no token")
	}
	user, ok := s[token]
	if !ok {
		return nil, apperr.E(apperr.ErrUnauthorized, "not authorized, token failed")
	}
	if user.IsBlocked {
		return nil, apperr.E(apperr.ErrForbidden, "account is blocked")
	}
	return user, nil
}

func protected(a Authenticator, admin bool) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFrom(r.Context())
		_, _ = w.Write([]byte(user.ID))
	})
	if admin {
		h = RequireAdmin(h)
	}
	return RequireAuth(a)(h)
}

func TestRequireAuth(t *testing.T) {
	users := stubAuthenticator{
		"customer": {ID: "c1", Role: models.RoleCustomer},
		"admin":    {ID: "a1", Role: models.RoleAdmin},
		"blocked":  {ID: "b1", Role: models.RoleCustomer, IsBlocked: true},
	}

	tests := []struct {
		name   string
		token  string
		admin  bool
		status int
		body   string
	}{
		{"missing token", "", false, http.StatusUnauthorized, ""},
		{"bad token", "nope", false, http.StatusUnauthorized, ""},
		{"blocked account", "blocked", false, http.StatusForbidden, ""},
		{"customer", "customer", false, http.StatusOK, "c1"},
		{"customer on admin route", "customer", true, http.StatusForbidden, ""},
		{"admin on admin route", "admin", true, http.StatusOK, "a1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			protected(users, tt.admin).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTracingSetsRequestID(t *testing.T) {
	var seen string
	h := Tracing(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.NotEqual(t, "unknown", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "unknown", GetRequestID(context.Background()))
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, rec.Body.String())
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, OriginAllowed("http://localhost:5173/", "http://localhost:5173"))
	assert.True(t, OriginAllowed("*", "https://anything.example"))
	assert.False(t, OriginAllowed("http://localhost:5173", "http://localhost:3000"))
}
