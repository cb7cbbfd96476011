// Package limiter decides whether a request is admissible under a
// sliding or fixed time window, backed by a durable event log and an
// ephemeral counter cache.
package limiter

import (
	"fmt"
	"time"
)

// Strategy selects the windowing algorithm for a policy.
type Strategy string

const (
	Sliding Strategy = "sliding"
	Fixed   Strategy = "fixed"
)

// Policy is the limit applied to one check call. Policies are supplied
// per call and never persisted by the engine.
type Policy struct {
	Limit    int64
	Window   time.Duration
	Strategy Strategy
}

// Request describes one unit of work asking for admission.
type Request struct {
	Identifier string
	Endpoint   string
	Policy     Policy

	// UseCache enables the counter cache fast path. Disabling it must
	// produce identical decisions, only slower.
	UseCache bool
}

type State int64

const (
	Deny  State = 0
	Allow State = 1
)

// Result is the outcome of a check. A denied request is an expected
// result, not an error.
type Result struct {
	State State

	// Remaining and ResetTime are meaningful when admitted.
	Remaining int64
	ResetTime time.Time

	// Used, RetryAfter, Limit and Window are meaningful when denied.
	Used       int64
	RetryAfter time.Duration
	Limit      int64
	Window     time.Duration
}

// Allowed reports whether the request was admitted.
func (r *Result) Allowed() bool {
	return r.State == Allow
}

// Message renders the denial message the API contract exposes.
func (r *Result) Message() string {
	return fmt.Sprintf("Rate limit exceeded: %d/%d requests in %ds",
		r.Used, r.Limit, int(r.Window.Seconds()))
}

func (req *Request) validate() error {
	if req.Identifier == "" {
		return NewValidationError("identifier", "identifier is required")
	}
	if req.Policy.Limit <= 0 {
		return NewValidationError("limit", "limit must be a positive integer")
	}
	if req.Policy.Window <= 0 {
		return NewValidationError("window", "window must be a positive integer (seconds)")
	}
	if _, ok := req.Policy.Strategy.window(); !ok {
		return NewValidationError("strategy", "strategy must be 'sliding' or 'fixed'")
	}
	return nil
}
