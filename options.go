package routekit

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/routekit/core/upload"
	"github.com/dmitrymomot/routekit/pkg/ratelimiter"
)

// Option configures a Pipeline during creation.
type Option func(*Pipeline)

// WithChain sets the middleware chain.
func WithChain(chain *Chain) Option {
	return func(p *Pipeline) {
		p.chain = chain
	}
}

// WithRateLimitStore sets the bucket store backing rate-limit checks.
// Without a store, rate limits are never enforced.
func WithRateLimitStore(store ratelimiter.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithAuthResolver sets the external authentication resolver used to exchange
// bearer tokens for principals.
func WithAuthResolver(fn AuthResolver) Option {
	return func(p *Pipeline) {
		p.resolver = fn
	}
}

// WithErrorReporter sets the external error reporter called for every
// uncaught middleware/handler fault.
func WithErrorReporter(fn ErrorReporter) Option {
	return func(p *Pipeline) {
		p.reporter = fn
	}
}

// WithUploads sets the multipart parser used for routes with uploads enabled.
func WithUploads(parser *upload.Parser) Option {
	return func(p *Pipeline) {
		p.uploads = parser
	}
}

// WithEnvelopeLevel selects the response envelope verbosity.
func WithEnvelopeLevel(level EnvelopeLevel) Option {
	return func(p *Pipeline) {
		p.level = level
	}
}

// WithLogger sets the structured logger for pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDefaultSettings sets the global settings layer that route and method
// overrides merge onto.
func WithDefaultSettings(s Settings) Option {
	return func(p *Pipeline) {
		p.defaultSettings = s
	}
}

// WithDefaultRateLimit sets the global rate-limit layer. Routes without any
// rate-limit configuration of their own inherit it.
func WithDefaultRateLimit(rl RateLimit) Option {
	return func(p *Pipeline) {
		p.defaultRateLimit = &rl
	}
}

// Config carries environment-derived pipeline defaults, loadable with
// core/config.
type Config struct {
	EnvelopeLevel       int           `env:"ROUTEKIT_ENVELOPE_LEVEL" envDefault:"0"`
	RateLimit           int           `env:"ROUTEKIT_RATELIMIT" envDefault:"0"`
	RateLimitRemember   time.Duration `env:"ROUTEKIT_RATELIMIT_REMEMBER" envDefault:"1m"`
	RateLimitPunishment time.Duration `env:"ROUTEKIT_RATELIMIT_PUNISHMENT" envDefault:"1m"`
	RateLimitStrict     bool          `env:"ROUTEKIT_RATELIMIT_STRICT" envDefault:"false"`
	RateLimitScope      string        `env:"ROUTEKIT_RATELIMIT_SCOPE" envDefault:"ip"`
}

// WithConfig applies environment-derived defaults. A zero RateLimit leaves
// routes unlimited unless they configure their own policy.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) {
		p.level = EnvelopeLevel(cfg.EnvelopeLevel)
		if cfg.RateLimit > 0 {
			p.defaultRateLimit = &RateLimit{
				Limit:      cfg.RateLimit,
				Remember:   cfg.RateLimitRemember,
				Punishment: cfg.RateLimitPunishment,
				Strict:     cfg.RateLimitStrict,
				Type:       BucketEndpoint,
				Scope:      Scope(cfg.RateLimitScope),
			}
		}
	}
}
