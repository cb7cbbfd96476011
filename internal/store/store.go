// Package store persists the append-only request log that rate limit
// decisions and usage reports are computed from.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing medium cannot accept a
// read or write. Callers decide fail-open vs fail-closed.
var ErrUnavailable = errors.New("event store unavailable")

// Event is one admitted request. Events are never mutated or deleted
// by the engine; retention is an operational concern.
type Event struct {
	Identifier string
	Endpoint   string
	Timestamp  time.Time
}

// Store is the durable event log.
//
// Implementations must be safe for concurrent use, and reads must
// reflect all previously completed writes for the same identifier:
// the engine depends on CountInRange when the counter cache is cold
// or disabled.
type Store interface {
	// Record appends an event.
	Record(ctx context.Context, e Event) error

	// CountInRange counts events for the identifier/endpoint pair with
	// start <= timestamp < end.
	CountInRange(ctx context.Context, identifier, endpoint string, start, end time.Time) (int64, error)

	// ListInRange returns the identifier's events with
	// start <= timestamp < end, ordered by timestamp ascending.
	ListInRange(ctx context.Context, identifier string, start, end time.Time) ([]Event, error)

	Close() error
}
