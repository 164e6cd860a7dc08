package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-orlov/card-system/internal/auth"
	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/repository"
)

type memIdempotencyRepo struct {
	entries map[string]*repository.IdempotencyCacheEntry
	gets    int
	sets    int
}

func newMemIdempotencyRepo() *memIdempotencyRepo {
	return &memIdempotencyRepo{entries: map[string]*repository.IdempotencyCacheEntry{}}
}

func (m *memIdempotencyRepo) Get(_ context.Context, key, username string) (*repository.IdempotencyCacheEntry, error) {
	m.gets++
	return m.entries[key+"/"+username], nil
}

func (m *memIdempotencyRepo) Set(_ context.Context, entry *repository.IdempotencyCacheEntry) error {
	m.sets++
	m.entries[entry.Key+"/"+entry.Username] = entry
	return nil
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := auth.ContextWithPrincipal(req.Context(), auth.Principal{Username: "alice", Role: domain.RoleUser})
	return req.WithContext(ctx)
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	})
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	repo := newMemIdempotencyRepo()
	var calls int
	h := Idempotency(repo)(countingHandler(&calls))

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/card/cards/transfer", `{"amount":10}`))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, repo.gets)
	assert.Equal(t, 0, repo.sets)
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	repo := newMemIdempotencyRepo()
	var calls int
	h := Idempotency(repo)(countingHandler(&calls))

	first := authedRequest(http.MethodPost, "/api/card/cards/transfer", `{"amount":10}`)
	first.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Idempotent-Replayed"))

	second := authedRequest(http.MethodPost, "/api/card/cards/transfer", `{"amount":10}`)
	second.Header.Set("Idempotency-Key", "key-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Idempotent-Replayed"))
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	assert.Equal(t, 1, calls, "handler must run only once per key")
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	repo := newMemIdempotencyRepo()
	var calls int
	h := Idempotency(repo)(countingHandler(&calls))

	first := authedRequest(http.MethodPost, "/api/card/cards/transfer", `{"amount":10}`)
	first.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := authedRequest(http.MethodPost, "/api/card/cards/transfer", `{"amount":999}`)
	second.Header.Set("Idempotency-Key", "key-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	require.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, 1, calls)
}

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	repo := newMemIdempotencyRepo()
	var calls int
	h := Idempotency(repo)(countingHandler(&calls))

	aliceReq := authedRequest(http.MethodPost, "/api/card/cards/transfer", `{"amount":10}`)
	aliceReq.Header.Set("Idempotency-Key", "shared-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, aliceReq)
	require.Equal(t, http.StatusOK, rec.Code)

	bobReq := httptest.NewRequest(http.MethodPost, "/api/card/cards/transfer", strings.NewReader(`{"amount":10}`))
	bobReq = bobReq.WithContext(auth.ContextWithPrincipal(bobReq.Context(), auth.Principal{Username: "bob", Role: domain.RoleUser}))
	bobReq.Header.Set("Idempotency-Key", "shared-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bobReq)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Idempotent-Replayed"))

	assert.Equal(t, 2, calls)
}

func TestIdempotency_RequiresPrincipal(t *testing.T) {
	repo := newMemIdempotencyRepo()
	var calls int
	h := Idempotency(repo)(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/card/cards/transfer", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, calls)
}
