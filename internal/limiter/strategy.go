package limiter

import "time"

// window is the closed set of windowing algorithms. A strategy is
// resolved to its window once at the start of a check, not dispatched
// per operation.
type window interface {
	// anchor returns the current window start for the strategy.
	anchor(now time.Time, d time.Duration) time.Time

	// countRange returns the [start, end) range prior events are
	// counted over.
	countRange(now time.Time, d time.Duration) (start, end time.Time)

	// resetTime is when an admitted caller's quota window resets.
	resetTime(now time.Time, d time.Duration) time.Time

	// retryAfter is how long a denied caller should wait.
	retryAfter(now time.Time, d time.Duration) time.Duration

	// fresh reports whether a cached entry written at entryAnchor may
	// still stand in for a store count at the current anchor.
	fresh(entryAnchor, current time.Time) bool

	// entryTTL is the lifetime of a cache entry written now.
	entryTTL(now time.Time, d time.Duration) time.Duration
}

func (s Strategy) window() (window, bool) {
	switch s {
	case Sliding:
		return slidingWindow{}, true
	case Fixed:
		return fixedWindow{}, true
	default:
		return nil, false
	}
}

// slidingWindow counts events in [now-d, now). The deny retry hint is
// the full window length rather than the age of the oldest counted
// event, matching the externally observed contract.
type slidingWindow struct{}

func (slidingWindow) anchor(now time.Time, d time.Duration) time.Time {
	return now.Add(-d)
}

func (slidingWindow) countRange(now time.Time, d time.Duration) (time.Time, time.Time) {
	return now.Add(-d), now
}

func (slidingWindow) resetTime(now time.Time, d time.Duration) time.Time {
	return now.Add(d)
}

func (slidingWindow) retryAfter(now time.Time, d time.Duration) time.Duration {
	return d
}

func (slidingWindow) fresh(entryAnchor, current time.Time) bool {
	// A live sliding entry is at most one window old. That bounded
	// staleness is the accepted approximation; the entry's own TTL
	// enforces the bound.
	return true
}

func (slidingWindow) entryTTL(now time.Time, d time.Duration) time.Duration {
	return d
}

// fixedWindow counts events in discrete buckets aligned to the Unix
// epoch: bucket start = floor(now/d)*d. A request arriving exactly on
// a boundary belongs to the new bucket.
type fixedWindow struct{}

func (fixedWindow) anchor(now time.Time, d time.Duration) time.Time {
	ns := now.UnixNano()
	dns := d.Nanoseconds()
	return time.Unix(0, ns-ns%dns).In(now.Location())
}

func (f fixedWindow) countRange(now time.Time, d time.Duration) (time.Time, time.Time) {
	start := f.anchor(now, d)
	return start, start.Add(d)
}

func (f fixedWindow) resetTime(now time.Time, d time.Duration) time.Time {
	return f.anchor(now, d).Add(d)
}

func (f fixedWindow) retryAfter(now time.Time, d time.Duration) time.Duration {
	return f.resetTime(now, d).Sub(now)
}

func (fixedWindow) fresh(entryAnchor, current time.Time) bool {
	// The bucket boundary is deterministic, so an entry is only valid
	// while its anchor still names the current bucket.
	return entryAnchor.Equal(current)
}

func (f fixedWindow) entryTTL(now time.Time, d time.Duration) time.Duration {
	return f.resetTime(now, d).Sub(now)
}
