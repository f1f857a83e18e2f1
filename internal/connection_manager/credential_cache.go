package connection_manager

import (
	"context"
	"time"

	"github.com/sahulatai/agentic-backend/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cachedCredentials struct {
	credentials *domain.Credentials
	fetchedAt   time.Time
}

// CredentialCache fronts a CredentialStore with a short TTL. A "no credentials"
// answer is cached like any other; store errors never are.
type CredentialCache struct {
	store CredentialStore
	ttl   time.Duration
	now   func() time.Time
	cache *expirable.LRU[connectionKey, cachedCredentials]
}

// NewCredentialCache builds a cache; a ttl <= 0 sends every lookup to the store.
func NewCredentialCache(store CredentialStore, size int, ttl time.Duration, now func() time.Time) *CredentialCache {
	cc := &CredentialCache{
		store: store,
		ttl:   ttl,
		now:   now,
	}

	if ttl > 0 {
		cc.cache = expirable.NewLRU[connectionKey, cachedCredentials](size, nil, ttl)
	}

	return cc
}

func (cc *CredentialCache) Get(ctx context.Context, tenant domain.TenantID, integration domain.IntegrationName) (*domain.Credentials, error) {
	key := connectionKey{tenant, integration}

	if cc.cache != nil {
		if entry, ok := cc.cache.Get(key); ok && cc.now().Sub(entry.fetchedAt) < cc.ttl {
			metrics.credentialCacheHit.Inc()
			return entry.credentials, nil
		}
	}

	metrics.credentialCacheMiss.Inc()

	creds, err := cc.store.GetCredentials(ctx, tenant, integration)
	if err != nil {
		return nil, err
	}

	fetchedAt := cc.now()
	if creds != nil && creds.FetchedAt.IsZero() {
		stamped := *creds
		stamped.FetchedAt = fetchedAt
		creds = &stamped
	}

	if cc.cache != nil {
		cc.cache.Add(key, cachedCredentials{credentials: creds, fetchedAt: fetchedAt})
	}

	return creds, nil
}

func (cc *CredentialCache) Invalidate(tenant domain.TenantID, integration domain.IntegrationName) {
	if cc.cache == nil {
		return
	}
	cc.cache.Remove(connectionKey{tenant, integration})
}

func (cc *CredentialCache) InvalidateTenant(tenant domain.TenantID) {
	if cc.cache == nil {
		return
	}
	for _, key := range cc.cache.Keys() {
		if key.tenant == tenant {
			cc.cache.Remove(key)
		}
	}
}

func (cc *CredentialCache) Purge() {
	if cc.cache == nil {
		return
	}
	cc.cache.Purge()
}
