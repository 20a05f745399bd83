package middleware

import (
	"log/slog"

	"github.com/dmitrymomot/routekit"
	"github.com/dmitrymomot/routekit/pkg/clientip"
	"github.com/dmitrymomot/routekit/pkg/logger"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *routekit.Context) bool
	// Logger is the slog logger to use (default: slog.Default())
	Logger *slog.Logger
	// LogLevel for request logging (default: slog.LevelInfo)
	LogLevel slog.Level
	// Component name for structured logging (default: "http")
	Component string
}

// Logging creates a request logging middleware with default configuration.
// It logs one line per incoming request at info level.
func Logging() routekit.HandlerFunc {
	return LoggingWithConfig(LoggingConfig{})
}

// LoggingWithLogger creates a logging middleware with a custom logger.
func LoggingWithLogger(log *slog.Logger) routekit.HandlerFunc {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig creates a request logging middleware with custom
// configuration. It runs before validation and dispatch, so it observes every
// request that passed route gating, rate limiting and authorization.
func LoggingWithConfig(cfg LoggingConfig) routekit.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(ctx *routekit.Context) error {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return nil
		}

		req := ctx.Request()
		attrs := []slog.Attr{
			logger.Component(cfg.Component),
			logger.Event("request"),
			logger.Method(req.Method),
			logger.Path(req.URL.Path),
			logger.RemoteAddr(req.RemoteAddr),
			logger.ClientIP(clientip.GetIP(req)),
		}
		if requestID, ok := GetRequestID(ctx); ok {
			attrs = append(attrs, logger.RequestID(requestID))
		}
		if req.URL.RawQuery != "" {
			attrs = append(attrs, logger.Query(req.URL.RawQuery))
		}
		if route := ctx.Route(); route != nil {
			attrs = append(attrs, slog.String("route", route.Pattern))
		}

		cfg.Logger.LogAttrs(req.Context(), cfg.LogLevel, "HTTP request started", attrs...)
		return nil
	}
}
