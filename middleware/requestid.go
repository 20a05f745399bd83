package middleware

import (
	"github.com/dmitrymomot/routekit"
	"github.com/google/uuid"
)

// requestIDContextKey is used as a key for storing the request ID in the
// request context.
type requestIDContextKey struct{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *routekit.Context) bool
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName specifies the header name for the request ID (default: "X-Request-ID")
	HeaderName string
	// UseExisting determines whether to reuse a request ID from the incoming request
	UseExisting bool
}

// RequestID creates a request ID middleware with default configuration.
// It generates a new UUID for each request and exposes it through both the
// context and the response headers.
func RequestID() routekit.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig creates a request ID middleware with custom
// configuration. The ID is stored in the context for later stages and set on
// the response header before any body is written.
func RequestIDWithConfig(cfg RequestIDConfig) routekit.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(ctx *routekit.Context) error {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return nil
		}

		var requestID string
		if cfg.UseExisting {
			requestID = ctx.Request().Header.Get(cfg.HeaderName)
		}
		if requestID == "" {
			requestID = cfg.Generator()
		}

		ctx.SetValue(requestIDContextKey{}, requestID)
		ctx.ResponseWriter().Header().Set(cfg.HeaderName, requestID)
		return nil
	}
}

// GetRequestID retrieves the request ID from the context.
// Returns the ID and a boolean indicating whether one was set.
func GetRequestID(ctx *routekit.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok
}
