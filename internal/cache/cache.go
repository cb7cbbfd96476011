// Package cache holds the ephemeral per-key request counters that let
// the engine skip an event store query on the hot path.
package cache

import (
	"context"
	"time"
)

// Key scopes one counter to an identifier/endpoint pair under one
// window strategy.
type Key struct {
	Identifier string
	Endpoint   string
	Strategy   string
}

// String renders the key in the form the original service used for
// its cache entries.
func (k Key) String() string {
	return "ratelimit:" + k.Identifier + ":" + k.Endpoint + ":" + k.Strategy
}

// Entry is a cached window aggregate. Anchor is the sliding-window
// start or the fixed bucket start at the time the entry was written.
type Entry struct {
	Anchor    time.Time
	Count     int64
	ExpiresAt time.Time
}

// Cache is a time-bounded counter store. The cache is purely an
// optimization: entries may disappear before their TTL, and callers
// must treat any absence or error as a miss, never as zero requests.
type Cache interface {
	// Get returns the live entry for the key, if any. Expired entries
	// are reported as absent.
	Get(ctx context.Context, key Key) (Entry, bool, error)

	// Put stores an entry that expires after ttl.
	Put(ctx context.Context, key Key, entry Entry, ttl time.Duration) error

	// Increment adds one to the key's live counter. Returns the new
	// count, or absent when the key is missing or expired.
	Increment(ctx context.Context, key Key) (int64, bool, error)
}
