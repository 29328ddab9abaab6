// Package gateway composes the per-route request pipeline: CORS, authentication,
// scope authorization, rate limiting and input validation run in that order
// before the downstream handler, and every failure is rendered by httputil.
package gateway

import (
	"slices"
	"time"
)

// RateLimitPolicy caps a client to Requests per Window on one route.
type RateLimitPolicy struct {
	Requests int
	Window   time.Duration
	Disabled bool
}

// DefaultRateLimit is applied to routes that do not override it.
var DefaultRateLimit = RateLimitPolicy{Requests: 100, Window: 15 * time.Minute}

// NoRateLimit exempts a route from throttling.
func NoRateLimit() *RateLimitPolicy {
	return &RateLimitPolicy{Disabled: true}
}

// RoutePolicy declares what the pipeline enforces before a handler runs.
type RoutePolicy struct {
	// Name identifies the route for rate-limit counters, logs and metrics.
	// Defaults to "METHOD /full/path" when registered through a Registrar.
	Name string

	AuthRequired   bool
	RequiredScopes []string

	// RateLimit nil means the pipeline default.
	RateLimit *RateLimitPolicy

	CORS bool

	// Schema binds and validates the request input. Nil means no input.
	Schema Schema
}

func (p RoutePolicy) clone() RoutePolicy {
	p.RequiredScopes = slices.Clone(p.RequiredScopes)
	if p.RateLimit != nil {
		limit := *p.RateLimit
		p.RateLimit = &limit
	}
	return p
}
