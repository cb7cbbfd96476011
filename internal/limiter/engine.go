package limiter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shubhamkhavare/rate-limiter/internal/cache"
	"github.com/shubhamkhavare/rate-limiter/internal/log"
	"github.com/shubhamkhavare/rate-limiter/internal/metrics"
	"github.com/shubhamkhavare/rate-limiter/internal/store"
)

// Engine runs admit/deny decisions against a durable event store,
// with an optional counter cache on the hot path.
type Engine struct {
	store    store.Store
	cache    cache.Cache
	locks    *keyLocks
	now      func() time.Time
	failOpen bool
}

type Option func(*Engine)

// WithClock injects the time source. Tests use this to pin or advance
// the current instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithFailOpen admits requests whose durable record could not be
// written instead of surfacing the store failure. The default is
// fail-closed.
func WithFailOpen(failOpen bool) Option {
	return func(e *Engine) {
		e.failOpen = failOpen
	}
}

// New creates an engine over the given store. The cache may be nil, in
// which case every check counts from the store.
func New(s store.Store, c cache.Cache, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}

	e := &Engine{
		store: s,
		cache: c,
		locks: newKeyLocks(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Check decides whether the request is admissible under its policy.
// An admitted request is recorded in the event store before the result
// is returned; a denied request leaves no trace. The error return is
// reserved for validation failures and store unavailability — a denial
// is a Result, not an error.
func (e *Engine) Check(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	w, _ := req.Policy.Strategy.window()

	key := cache.Key{
		Identifier: req.Identifier,
		Endpoint:   req.Endpoint,
		Strategy:   string(req.Policy.Strategy),
	}

	// Serialize the count-then-record sequence per key so two requests
	// racing at count == limit-1 cannot both be admitted.
	e.locks.lock(key.String())
	defer e.locks.unlock(key.String())

	now := e.now()
	anchor := w.anchor(now, req.Policy.Window)

	count, cached := e.cachedCount(ctx, req, key, w, anchor)
	if !cached {
		start, end := w.countRange(now, req.Policy.Window)
		c, err := e.store.CountInRange(ctx, req.Identifier, req.Endpoint, start, end)
		if err != nil {
			metrics.StoreErrorsTotal.Inc()
			return nil, fmt.Errorf("failed to count prior requests: %w", err)
		}
		count = c
	}

	if count >= req.Policy.Limit {
		metrics.DecisionsTotal.WithLabelValues(req.Endpoint, "deny").Inc()
		return &Result{
			State:      Deny,
			Used:       count,
			Limit:      req.Policy.Limit,
			Window:     req.Policy.Window,
			RetryAfter: w.retryAfter(now, req.Policy.Window),
			ResetTime:  w.resetTime(now, req.Policy.Window),
		}, nil
	}

	// Durable record first: the cache update must not become visible
	// until the store write has been attempted.
	if err := e.store.Record(ctx, store.Event{
		Identifier: req.Identifier,
		Endpoint:   req.Endpoint,
		Timestamp:  now,
	}); err != nil {
		metrics.StoreErrorsTotal.Inc()
		if !e.failOpen {
			return nil, fmt.Errorf("failed to record request: %w", err)
		}
		log.Logger().Warn("admitting without durable record",
			zap.String("identifier", req.Identifier),
			zap.String("endpoint", req.Endpoint),
			zap.Error(err))
	}

	if req.UseCache && e.cache != nil {
		e.updateCache(ctx, key, w, anchor, now, req.Policy.Window, count+1, cached)
	}

	metrics.DecisionsTotal.WithLabelValues(req.Endpoint, "allow").Inc()
	return &Result{
		State:     Allow,
		Remaining: req.Policy.Limit - count - 1,
		ResetTime: w.resetTime(now, req.Policy.Window),
		Limit:     req.Policy.Limit,
		Window:    req.Policy.Window,
	}, nil
}

// cachedCount returns the cached prior count for the key when a live,
// strategy-fresh entry exists. Any cache error or stale anchor is a
// miss; the cache is never the sole source of truth for a decision the
// store could not back.
func (e *Engine) cachedCount(ctx context.Context, req Request, key cache.Key, w window, anchor time.Time) (int64, bool) {
	if !req.UseCache || e.cache == nil {
		return 0, false
	}

	entry, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Logger().Warn("cache read failed, falling back to store",
			zap.String("key", key.String()), zap.Error(err))
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return 0, false
	}
	if !ok || !w.fresh(entry.Anchor, anchor) {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return 0, false
	}

	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return entry.Count, true
}

// updateCache writes the post-admission count through to the cache.
// Failures are logged and dropped: the next check falls back to the
// store.
func (e *Engine) updateCache(ctx context.Context, key cache.Key, w window, anchor, now time.Time, d time.Duration, count int64, hadEntry bool) {
	if hadEntry {
		if _, ok, err := e.cache.Increment(ctx, key); err == nil && ok {
			return
		}
		// Entry evicted between read and update; fall through and
		// rewrite it.
	}

	entry := cache.Entry{
		Anchor: anchor,
		Count:  count,
	}
	if err := e.cache.Put(ctx, key, entry, w.entryTTL(now, d)); err != nil {
		log.Logger().Warn("cache write failed",
			zap.String("key", key.String()), zap.Error(err))
	}
}
