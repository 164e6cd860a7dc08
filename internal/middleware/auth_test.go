package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-orlov/card-system/internal/auth"
	"github.com/g-orlov/card-system/internal/domain"
)

const testSecret = "middleware-test-secret"

func TestAuth(t *testing.T) {
	var principal auth.Principal
	var reached bool
	h := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ = auth.PrincipalFromContext(r.Context())
		reached = true
	}))

	token, err := auth.GenerateToken("alice", domain.RoleUser, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/card/cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, reached)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, domain.RoleUser, principal.Role)
}

func TestAuth_Rejections(t *testing.T) {
	expired, err := auth.GenerateToken("alice", domain.RoleUser, testSecret, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var reached bool
			h := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/card/cards", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, reached)
		})
	}
}

func TestRequireRole(t *testing.T) {
	var reached bool
	h := RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	adminReq := httptest.NewRequest(http.MethodGet, "/api/admin/cards", nil)
	adminReq = adminReq.WithContext(auth.ContextWithPrincipal(adminReq.Context(), auth.Principal{Username: "root", Role: domain.RoleAdmin}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, adminReq)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	reached = false
	userReq := httptest.NewRequest(http.MethodGet, "/api/admin/cards", nil)
	userReq = userReq.WithContext(auth.ContextWithPrincipal(userReq.Context(), auth.Principal{Username: "alice", Role: domain.RoleUser}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, userReq)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)

	reached = false
	anonReq := httptest.NewRequest(http.MethodGet, "/api/admin/cards", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, anonReq)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}
