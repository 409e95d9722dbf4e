// Package cache provides the TTL-bounded memoization store shared by the
// BIMI validation pipeline.
//
// Policy lookup results, downloaded indicator/VMC bytes, and VMC validation
// outcomes are all memoized under namespaced keys so that repeated
// validation of the same input within the TTL window is cheap and
// deterministic. The cache is advisory: concurrent lookups that both miss
// will both perform the underlying work and both write the cache
// (last-writer-wins); no request coalescing is attempted.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Key namespaces. Distinct prefixes per check type make collisions across
// check types impossible even for identical input strings.
const (
	// KeyPrefixPolicy namespaces memoized policy lookup results,
	// keyed by "domain/selector".
	KeyPrefixPolicy = "bimi_policy_result_"

	// KeyPrefixDownload namespaces downloaded indicator and certificate
	// bytes, keyed by URI.
	KeyPrefixDownload = "bimi_downloaded_data_"

	// KeyPrefixVMC namespaces memoized VMC validation outcomes,
	// keyed by URI.
	KeyPrefixVMC = "bimi_vmc_validation_result_"
)

// Defaults applied by New when the corresponding argument is zero.
const (
	DefaultCapacity = 100
	DefaultTTL      = 30 * time.Minute
)

// Key derives a stable cache key from a namespace prefix and the
// normalized input it identifies.
func Key(prefix, input string) string {
	sum := md5.Sum([]byte(input))
	return prefix + hex.EncodeToString(sum[:])
}

// Cache is a thread-safe, fixed-capacity, TTL-evicting store.
//
// A nil *Cache is valid and caches nothing, so callers can pass one through
// unconditionally.
type Cache struct {
	store *expirable.LRU[string, any]
}

// New creates a cache holding at most capacity entries, each expiring ttl
// after insertion. Zero values select DefaultCapacity and DefaultTTL.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: expirable.NewLRU[string, any](capacity, nil, ttl)}
}

// Set stores value under key, replacing any existing entry.
func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.store.Add(key, value)
}

// Get returns the value stored under key, and whether a live entry exists.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.store.Get(key)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.Len()
}

// Purge discards all entries.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.store.Purge()
}
