// Package cache wraps the in-process expiring store shared by the HTTP layer.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration = 5 * time.Minute
	CleanupInterval   = time.Minute
)

// New returns a store whose entries expire ttl after they were last read
// through GetOrCreate.
func New(ttl, cleanup time.Duration) *gocache.Cache {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	if cleanup <= 0 {
		cleanup = CleanupInterval
	}
	return gocache.New(ttl, cleanup)
}

// GetOrCreate returns the value stored under key, creating it with create on
// a miss. Either way the entry's expiry is pushed back by the default TTL.
func GetOrCreate[T any](store *gocache.Cache, key string, create func() T) T {
	if v, ok := store.Get(key); ok {
		if typed, ok := v.(T); ok {
			store.SetDefault(key, typed)
			return typed
		}
	}

	value := create()
	if err := store.Add(key, value, gocache.DefaultExpiration); err != nil {
		// lost the race to a concurrent creator
		if v, ok := store.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed
			}
		}
		store.SetDefault(key, value)
	}
	return value
}
