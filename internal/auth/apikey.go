// Package auth scopes API requests to their owning organization.
//
// Identity itself lives in an external service; this package only maps an
// API key presented by a trusted backend to an organization id. The public
// tracking endpoints are deliberately unauthenticated (the trust boundary
// there is possession of the URL) and never pass through this middleware.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ignite/engagement-tracker/internal/pkg/httputil"
)

// ErrUnknownKey is returned by a KeyStore for missing or inactive keys.
var ErrUnknownKey = errors.New("unknown api key")

// KeyStore resolves a hashed API key to an organization id.
type KeyStore interface {
	OrgForKeyHash(ctx context.Context, keyHash string) (string, error)
}

type ctxKey int

const orgIDKey ctxKey = iota

// OrgIDFromContext returns the authenticated organization id, if any.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	orgID, ok := ctx.Value(orgIDKey).(string)
	return orgID, ok && orgID != ""
}

// WithOrgID returns a context carrying the organization id. Exposed for
// handler tests.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgIDKey, orgID)
}

type cachedOrg struct {
	orgID   string
	expires time.Time
}

// Middleware authenticates API requests by API key and injects the owning
// organization into the request context. Lookups are cached briefly so a
// hot dashboard doesn't hammer the key table.
type Middleware struct {
	store    KeyStore
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cachedOrg
}

// NewMiddleware creates the API key middleware.
func NewMiddleware(store KeyStore) *Middleware {
	return &Middleware{
		store:    store,
		cacheTTL: time.Minute,
		cache:    make(map[string]cachedOrg),
	}
}

// RequireAPIKey rejects requests without a valid key and otherwise passes
// them on with the organization id in context.
func (m *Middleware) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := apiKeyFromRequest(r)
		if key == "" {
			httputil.Unauthorized(w, "missing api key")
			return
		}

		hash := HashKey(key)
		orgID, ok := m.cachedOrgID(hash)
		if !ok {
			var err error
			orgID, err = m.store.OrgForKeyHash(r.Context(), hash)
			if err == ErrUnknownKey {
				httputil.Unauthorized(w, "invalid api key")
				return
			}
			if err != nil {
				httputil.InternalError(w, err)
				return
			}
			m.storeCache(hash, orgID)
		}

		next.ServeHTTP(w, r.WithContext(WithOrgID(r.Context(), orgID)))
	})
}

func (m *Middleware) cachedOrgID(hash string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cache[hash]
	if !ok || time.Now().After(c.expires) {
		return "", false
	}
	return c.orgID, true
}

func (m *Middleware) storeCache(hash, orgID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[hash] = cachedOrg{orgID: orgID, expires: time.Now().Add(m.cacheTTL)}
}

func apiKeyFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// HashKey returns the SHA-256 hex digest under which a key is stored.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
