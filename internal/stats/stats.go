// Package stats reports historical usage from the event store. It is
// a pure read path: it never consults the counter cache and never
// affects engine decisions.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shubhamkhavare/rate-limiter/internal/store"
)

// recentLimit caps the number of raw events echoed back in a report.
const recentLimit = 10

// EndpointStat is one endpoint's share of an identifier's traffic.
type EndpointStat struct {
	Endpoint    string
	Count       int64
	LastRequest time.Time
}

// Report summarizes an identifier's traffic over a trailing range.
type Report struct {
	Identifier    string
	Start         time.Time
	End           time.Time
	TotalRequests int64
	ByEndpoint    []EndpointStat
	Recent        []store.Event
}

// Aggregator computes reports from the event store.
type Aggregator struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) (*Aggregator, error) {
	return NewWithClock(s, time.Now)
}

func NewWithClock(s store.Store, now func() time.Time) (*Aggregator, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Aggregator{store: s, now: now}, nil
}

// Stats reports the identifier's usage over the trailing number of
// hours: total count, per-endpoint breakdown ordered by count
// descending, and the newest events first.
func (a *Aggregator) Stats(ctx context.Context, identifier string, hours int) (*Report, error) {
	end := a.now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	events, err := a.store.ListInRange(ctx, identifier, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	byEndpoint := make(map[string]*EndpointStat)
	for _, e := range events {
		st, ok := byEndpoint[e.Endpoint]
		if !ok {
			st = &EndpointStat{Endpoint: e.Endpoint}
			byEndpoint[e.Endpoint] = st
		}
		st.Count++
		if e.Timestamp.After(st.LastRequest) {
			st.LastRequest = e.Timestamp
		}
	}

	grouped := make([]EndpointStat, 0, len(byEndpoint))
	for _, st := range byEndpoint {
		grouped = append(grouped, *st)
	}
	sort.Slice(grouped, func(i, j int) bool {
		if grouped[i].Count != grouped[j].Count {
			return grouped[i].Count > grouped[j].Count
		}
		return grouped[i].Endpoint < grouped[j].Endpoint
	})

	// events arrive ascending; the report wants the newest first.
	recent := make([]store.Event, 0, recentLimit)
	for i := len(events) - 1; i >= 0 && len(recent) < recentLimit; i-- {
		recent = append(recent, events[i])
	}

	return &Report{
		Identifier:    identifier,
		Start:         start,
		End:           end,
		TotalRequests: int64(len(events)),
		ByEndpoint:    grouped,
		Recent:        recent,
	}, nil
}
