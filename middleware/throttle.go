package middleware

import (
	"net/http"

	"github.com/dmitrymomot/routekit"
	"golang.org/x/time/rate"
)

// ThrottleConfig configures the global throttle middleware.
type ThrottleConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *routekit.Context) bool
	// RPS is the sustained rate in requests per second (default: 100)
	RPS float64
	// Burst is the number of requests that may exceed RPS momentarily
	// (default: RPS rounded up, minimum 1)
	Burst int
}

// Throttle creates a global load-shedding middleware with default
// configuration. Unlike the per-client rate limiter, it protects the process
// as a whole with a single token bucket shared by every caller.
func Throttle() routekit.HandlerFunc {
	return ThrottleWithConfig(ThrottleConfig{})
}

// ThrottleWithConfig creates a global throttle middleware with custom
// configuration. Requests over the budget are rejected with 503, signalling a
// temporary condition rather than client misbehavior.
func ThrottleWithConfig(cfg ThrottleConfig) routekit.HandlerFunc {
	if cfg.RPS <= 0 {
		cfg.RPS = 100
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

	return func(ctx *routekit.Context) error {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return nil
		}
		if !limiter.Allow() {
			ctx.ResponseWriter().Header().Set("Retry-After", "1")
			return ctx.Send(nil,
				routekit.WithStatus(http.StatusServiceUnavailable),
				routekit.AsError(),
				routekit.WithMessage("server overloaded"))
		}
		return nil
	}
}
