package cache

import "errors"

// Sentinel errors for the cache.
var (
	ErrClosed    = errors.New("cache closed")
	ErrNoFetcher = errors.New("no fetcher registered for key")
	ErrType      = errors.New("cached value has unexpected type")
)
