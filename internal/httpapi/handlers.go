// Package httpapi maps the rate limiter engine and stats aggregator
// onto the service's JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shubhamkhavare/rate-limiter/internal/limiter"
	"github.com/shubhamkhavare/rate-limiter/internal/stats"
	"github.com/shubhamkhavare/rate-limiter/internal/store"
	"github.com/shubhamkhavare/rate-limiter/internal/utils"
)

const (
	pingEndpoint   = "/api/ping"
	customEndpoint = "/api/custom-limit"

	defaultStatsHours = 24
)

type Handler struct {
	engine     *limiter.Engine
	aggregator *stats.Aggregator
	useCache   bool
	pingPolicy limiter.Policy
}

type Config struct {
	Engine     *limiter.Engine
	Aggregator *stats.Aggregator
	UseCache   bool

	// PingPolicy is the demo endpoint's rate limit. Zero values fall
	// back to 5 requests per minute, sliding.
	PingPolicy limiter.Policy
}

func NewHandler(cfg Config) *Handler {
	policy := cfg.PingPolicy
	if policy.Limit == 0 {
		policy.Limit = 5
	}
	if policy.Window == 0 {
		policy.Window = time.Minute
	}
	if policy.Strategy == "" {
		policy.Strategy = limiter.Sliding
	}

	return &Handler{
		engine:     cfg.Engine,
		aggregator: cfg.Aggregator,
		useCache:   cfg.UseCache,
		pingPolicy: policy,
	}
}

// Register mounts the API routes. The client IP middleware must be
// installed on the router for the ping endpoint to scope correctly.
func (h *Handler) Register(r chi.Router, extractor utils.Extractor) {
	r.Route("/api", func(r chi.Router) {
		r.Use(ClientIPMiddleware(extractor))
		r.Get("/ping", h.Ping)
		r.Post("/custom-limit", h.CustomLimit)
		r.Get("/stats/{identifier}", h.Stats)
	})
}

// Ping is the demo endpoint: rate limited per client IP under the
// configured ping policy.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Check(r.Context(), limiter.Request{
		Identifier: ClientIP(r),
		Endpoint:   pingEndpoint,
		Policy:     h.pingPolicy,
		UseCache:   h.useCache,
	})
	if err != nil {
		h.writeCheckError(w, err)
		return
	}

	if !result.Allowed() {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":          "Rate limit exceeded",
			"message":        result.Message(),
			"limit":          result.Limit,
			"window_seconds": int(result.Window.Seconds()),
			"retry_after":    int(result.RetryAfter.Seconds()),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "pong",
		"remaining_requests": result.Remaining,
		"reset_time":         isoTime(result.ResetTime),
	})
}

type customLimitRequest struct {
	Identifier string `json:"identifier"`
	Limit      int64  `json:"limit"`
	Window     int64  `json:"window"`
	Strategy   string `json:"strategy"`
}

// CustomLimit checks a caller-supplied identifier against a
// caller-supplied policy.
func (h *Handler) CustomLimit(w http.ResponseWriter, r *http.Request) {
	var body customLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Strategy == "" {
		body.Strategy = string(limiter.Sliding)
	}

	result, err := h.engine.Check(r.Context(), limiter.Request{
		Identifier: body.Identifier,
		Endpoint:   customEndpoint,
		Policy: limiter.Policy{
			Limit:    body.Limit,
			Window:   time.Duration(body.Window) * time.Second,
			Strategy: limiter.Strategy(body.Strategy),
		},
		UseCache: h.useCache,
	})
	if err != nil {
		h.writeCheckError(w, err)
		return
	}

	if !result.Allowed() {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":          "Rate limit exceeded",
			"message":        result.Message(),
			"identifier":     body.Identifier,
			"limit":          result.Limit,
			"window_seconds": int(result.Window.Seconds()),
			"retry_after":    int(result.RetryAfter.Seconds()),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "Request allowed",
		"identifier":         body.Identifier,
		"remaining_requests": result.Remaining,
		"limit":              result.Limit,
		"window_seconds":     int(result.Window.Seconds()),
		"reset_time":         isoTime(result.ResetTime),
	})
}

// Stats reports an identifier's usage over a trailing range of hours
// (default 24).
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	hours := defaultStatsHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = parsed
	}

	report, err := h.aggregator.Stats(r.Context(), identifier, hours)
	if err != nil {
		h.writeCheckError(w, err)
		return
	}

	byEndpoint := make([]map[string]any, 0, len(report.ByEndpoint))
	for _, st := range report.ByEndpoint {
		byEndpoint = append(byEndpoint, map[string]any{
			"endpoint":     st.Endpoint,
			"count":        st.Count,
			"last_request": isoTime(st.LastRequest),
		})
	}

	recent := make([]map[string]any, 0, len(report.Recent))
	for _, e := range report.Recent {
		recent = append(recent, map[string]any{
			"endpoint":  e.Endpoint,
			"timestamp": isoTime(e.Timestamp),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"identifier":       report.Identifier,
		"time_range_hours": hours,
		"start_time":       isoTime(report.Start),
		"end_time":         isoTime(report.End),
		"total_requests":   report.TotalRequests,
		"by_endpoint":      byEndpoint,
		"recent_requests":  recent,
	})
}

// writeCheckError maps engine failures to the API's error contract:
// validation problems are the caller's fault, store unavailability is
// a 503 (the boundary is fail-closed), anything else is a 500.
func (h *Handler) writeCheckError(w http.ResponseWriter, err error) {
	var ve *limiter.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}
	if errors.Is(err, store.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}
