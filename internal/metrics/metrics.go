// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts rate limit decisions by endpoint and outcome
	// (allow, deny).
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimiter_decisions_total",
		Help: "Rate limit decisions by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// CacheLookupsTotal counts counter cache lookups by result
	// (hit, miss).
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimiter_cache_lookups_total",
		Help: "Counter cache lookups by result.",
	}, []string{"result"})

	// StoreErrorsTotal counts event store failures seen by the engine.
	StoreErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratelimiter_store_errors_total",
		Help: "Event store failures observed during checks.",
	})
)
