/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

// CachingResolver caches successful resolutions of another KeyResolver.
// Entries expire after ttl, the least recently used entry is dropped once size is reached.
type CachingResolver struct {
	next  KeyResolver
	cache *expirable.LRU[string, *pubkey.PublicKey]
}

// NewCachingResolver creates CachingResolver.
func NewCachingResolver(next KeyResolver, size int, ttl time.Duration) *CachingResolver {
	return &CachingResolver{
		next:  next,
		cache: expirable.NewLRU[string, *pubkey.PublicKey](size, nil, ttl),
	}
}

// Resolve returns the cached key of vmID or resolves it.
func (c *CachingResolver) Resolve(ctx context.Context, vmID string) (*pubkey.PublicKey, error) {
	if key, ok := c.cache.Get(vmID); ok {
		return key, nil
	}

	key, err := c.next.Resolve(ctx, vmID)
	if err != nil {
		return nil, err
	}

	c.cache.Add(vmID, key)

	return key, nil
}

// Purge drops all cached keys.
func (c *CachingResolver) Purge() {
	c.cache.Purge()
}

// StaticResolver resolves from a fixed set of keys.
type StaticResolver map[string]*pubkey.PublicKey

// Resolve returns the key registered for vmID.
func (s StaticResolver) Resolve(_ context.Context, vmID string) (*pubkey.PublicKey, error) {
	key, ok := s[vmID]
	if !ok {
		return nil, vcerror.New(vcerror.VerificationMethodNotFound, "verification method %s is not registered", vmID)
	}

	return key, nil
}
