package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingKeyStore struct {
	orgs    map[string]string
	lookups int
}

func (s *countingKeyStore) OrgForKeyHash(_ context.Context, hash string) (string, error) {
	s.lookups++
	org, ok := s.orgs[hash]
	if !ok {
		return "", ErrUnknownKey
	}
	return org, nil
}

func protected(mw *Middleware) http.Handler {
	return mw.RequireAPIKey(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org, _ := OrgIDFromContext(r.Context())
		w.Write([]byte(org))
	}))
}

func TestRequireAPIKey_BearerHeader(t *testing.T) {
	store := &countingKeyStore{orgs: map[string]string{HashKey("secret"): "org1"}}
	h := protected(NewMiddleware(store))

	req := httptest.NewRequest("GET", "/api/campaigns", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "org1", rec.Body.String())
}

func TestRequireAPIKey_XAPIKeyHeader(t *testing.T) {
	store := &countingKeyStore{orgs: map[string]string{HashKey("secret"): "org1"}}
	h := protected(NewMiddleware(store))

	req := httptest.NewRequest("GET", "/api/campaigns", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "org1", rec.Body.String())
}

func TestRequireAPIKey_MissingAndUnknown(t *testing.T) {
	store := &countingKeyStore{orgs: map[string]string{}}
	h := protected(NewMiddleware(store))

	req := httptest.NewRequest("GET", "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, store.lookups, "no lookup without a key")

	req = httptest.NewRequest("GET", "/api/campaigns", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAPIKey_CachesLookups(t *testing.T) {
	store := &countingKeyStore{orgs: map[string]string{HashKey("secret"): "org1"}}
	h := protected(NewMiddleware(store))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/api/campaigns", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, store.lookups)
}

type failingKeyStore struct{}

func (failingKeyStore) OrgForKeyHash(context.Context, string) (string, error) {
	return "", errors.New("db down")
}

func TestRequireAPIKey_StoreFailureIs500(t *testing.T) {
	h := protected(NewMiddleware(failingKeyStore{}))

	req := httptest.NewRequest("GET", "/api/campaigns", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOrgIDFromContext(t *testing.T) {
	_, ok := OrgIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithOrgID(context.Background(), "org1")
	org, ok := OrgIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "org1", org)
}

func TestHashKey(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		HashKey("abc"))
	assert.NotEqual(t, HashKey("a"), HashKey("b"))
}
