package usecase

import (
	"sync"
	"time"

	"github.com/notelens/notelens/pkg/domain/model/auth"
)

const (
	authCacheTTL = 5 * time.Minute
)

type cachedIdentity struct {
	identity  *auth.Identity
	expiresAt time.Time
}

// authCache memoizes verified credentials so repeated requests within
// the TTL skip the JWKS fetch and signature check. An entry never
// outlives the token's own expiration.
type authCache struct {
	cache sync.Map
}

func newAuthCache() *authCache {
	return &authCache{}
}

func (c *authCache) get(credential string) (*auth.Identity, bool) {
	val, ok := c.cache.Load(credential)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedIdentity)
	if time.Now().After(cached.expiresAt) {
		c.cache.Delete(credential)
		return nil, false
	}

	return cached.identity, true
}

func (c *authCache) set(credential string, id *auth.Identity, tokenExpiry time.Time) {
	expiresAt := time.Now().Add(authCacheTTL)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}

	c.cache.Store(credential, &cachedIdentity{
		identity:  id,
		expiresAt: expiresAt,
	})
}
