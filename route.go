package routekit

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dmitrymomot/routekit/core/schema"
)

// allowedMethods is the closed set of verbs a route may carry handlers for.
var allowedMethods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"PATCH":  {},
	"DELETE": {},
}

// AuthOverride replaces the standard bearer-token flow for a route. A false
// result or an error rejects the request with 401.
type AuthOverride func(ctx *Context) (bool, error)

// Settings are the fully resolved per-request route settings.
type Settings struct {
	// Unauthed allows requests without a resolved principal.
	Unauthed bool
	// Disabled short-circuits every request with 503.
	Disabled bool
	// Moved short-circuits every request with 301 and this destination.
	Moved string
	// AuthOverwrite replaces the standard token authorization flow.
	AuthOverwrite AuthOverride
	// Upload enables multipart body parsing for the route.
	Upload bool
}

// SettingsOverride is one layer of route settings. Nil fields inherit from
// the layer below; later layers win (defaults <- route <- method).
type SettingsOverride struct {
	Unauthed      *bool
	Disabled      *bool
	Moved         *string
	AuthOverwrite AuthOverride
	Upload        *bool
}

// merge applies one override layer on top of s.
func (s Settings) merge(o *SettingsOverride) Settings {
	if o == nil {
		return s
	}
	if o.Unauthed != nil {
		s.Unauthed = *o.Unauthed
	}
	if o.Disabled != nil {
		s.Disabled = *o.Disabled
	}
	if o.Moved != nil {
		s.Moved = *o.Moved
	}
	if o.AuthOverwrite != nil {
		s.AuthOverwrite = o.AuthOverwrite
	}
	if o.Upload != nil {
		s.Upload = *o.Upload
	}
	return s
}

// BucketType controls how the route part of a rate-limit bucket key is derived.
type BucketType string

const (
	// BucketEndpoint shares one bucket among all callers of the route pattern,
	// regardless of path parameter values.
	BucketEndpoint BucketType = "endpoint"
	// BucketParameter gives each distinct concrete URL its own bucket.
	BucketParameter BucketType = "parameter"
)

// Scope controls how the client part of a rate-limit bucket key is derived.
type Scope string

const (
	// ScopeIP keys buckets by caller IP.
	ScopeIP Scope = "ip"
	// ScopeAuthentication keys buckets by the caller's credential when one is
	// presented, falling back to IP for anonymous callers.
	ScopeAuthentication Scope = "authentication"
	// ScopeGlobal shares a single bucket among all callers.
	ScopeGlobal Scope = "global"
)

// RateLimit is the fully resolved rate-limit policy for one (route, method).
// A zero Limit means the route is unlimited and never checked.
type RateLimit struct {
	Limit      int
	Remember   time.Duration
	Punishment time.Duration
	Strict     bool
	Type       BucketType
	Scope      Scope
}

// RateLimitOverride is one layer of rate-limit policy, merged the same way
// as SettingsOverride.
type RateLimitOverride struct {
	Limit      *int
	Remember   *time.Duration
	Punishment *time.Duration
	Strict     *bool
	Type       *BucketType
	Scope      *Scope
}

func (rl RateLimit) merge(o *RateLimitOverride) RateLimit {
	if o == nil {
		return rl
	}
	if o.Limit != nil {
		rl.Limit = *o.Limit
	}
	if o.Remember != nil {
		rl.Remember = *o.Remember
	}
	if o.Punishment != nil {
		rl.Punishment = *o.Punishment
	}
	if o.Strict != nil {
		rl.Strict = *o.Strict
	}
	if o.Type != nil {
		rl.Type = *o.Type
	}
	if o.Scope != nil {
		rl.Scope = *o.Scope
	}
	return rl
}

// Route represents one registered endpoint: its handler set, layered settings,
// rate-limit policy and optional schema binding. Routes are built once at
// startup and are immutable during request handling.
type Route struct {
	// Pattern is the path pattern with :name placeholders, e.g. "/users/:userId".
	Pattern string
	// Handlers maps HTTP verbs to their handler. The populated slots define
	// which methods the route supports.
	Handlers map[string]HandlerFunc
	// Settings is the route-level settings layer.
	Settings *SettingsOverride
	// MethodSettings are per-method settings layers, applied on top of Settings.
	MethodSettings map[string]*SettingsOverride
	// RateLimits is the route-level rate-limit layer.
	RateLimits *RateLimitOverride
	// MethodRateLimits are per-method rate-limit layers.
	MethodRateLimits map[string]*RateLimitOverride
	// Schema is the validation schema bound to this route, if any.
	Schema *schema.Schema
	// Reserved marks framework-owned routes which always win over user routes
	// at the same path.
	Reserved bool

	segments   []segment
	conflicted bool
}

// Methods returns the sorted set of verbs the route has handlers for.
func (rt *Route) Methods() []string {
	methods := make([]string, 0, len(rt.Handlers))
	for m := range rt.Handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// ResolvedSettings merges defaults <- route <- method settings layers.
// A duplicate-path conflict forces the route disabled regardless of layers.
func (rt *Route) ResolvedSettings(defaults Settings, method string) Settings {
	s := defaults.merge(rt.Settings)
	if rt.MethodSettings != nil {
		s = s.merge(rt.MethodSettings[method])
	}
	if rt.conflicted {
		s.Disabled = true
	}
	return s
}

// ResolvedRateLimit merges rate-limit layers for the method. It returns nil
// when no layer configures a positive limit: such routes are unlimited.
func (rt *Route) ResolvedRateLimit(defaults *RateLimit, method string) *RateLimit {
	var methodLayer *RateLimitOverride
	if rt.MethodRateLimits != nil {
		methodLayer = rt.MethodRateLimits[method]
	}
	if defaults == nil && rt.RateLimits == nil && methodLayer == nil {
		return nil
	}

	var rl RateLimit
	if defaults != nil {
		rl = *defaults
	}
	rl = rl.merge(rt.RateLimits).merge(methodLayer)
	if rl.Limit <= 0 {
		return nil
	}
	if rl.Type == "" {
		rl.Type = BucketEndpoint
	}
	if rl.Scope == "" {
		rl.Scope = ScopeIP
	}
	return &rl
}

// validate checks handler slots and parses the pattern.
func (rt *Route) validate() error {
	if len(rt.Handlers) == 0 {
		return fmt.Errorf("%w: '%s'", ErrNilHandler, rt.Pattern)
	}
	for m := range rt.Handlers {
		if _, ok := allowedMethods[m]; !ok {
			return fmt.Errorf("%w: '%s' on '%s'", ErrInvalidMethod, m, rt.Pattern)
		}
	}
	segs, err := parsePattern(rt.Pattern)
	if err != nil {
		return err
	}
	rt.segments = segs
	return nil
}

// segment is one parsed element of a route pattern: either a literal or a
// named :param placeholder.
type segment struct {
	literal string
	param   string
}

// parsePattern splits a ":name"-style pattern into segments and validates it.
func parsePattern(pattern string) ([]segment, error) {
	if len(pattern) == 0 || pattern[0] != '/' {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPattern, pattern)
	}

	raw := splitPath(pattern)
	segs := make([]segment, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, part := range raw {
		if strings.HasPrefix(part, ":") {
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("%w: '%s'", ErrEmptyParam, pattern)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: '%s' in '%s'", ErrDuplicateParam, name, pattern)
			}
			seen[name] = struct{}{}
			segs = append(segs, segment{param: name})
			continue
		}
		segs = append(segs, segment{literal: part})
	}
	return segs, nil
}

// match tests decoded URL segments against the pattern, extracting params.
func (rt *Route) match(parts []string) (map[string]string, bool) {
	if len(parts) != len(rt.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range rt.segments {
		if seg.param != "" {
			if params == nil {
				params = make(map[string]string, len(rt.segments))
			}
			params[seg.param] = parts[i]
			continue
		}
		if seg.literal != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// splitPath breaks a URL path into segments, ignoring empty ones so that
// "/users/", "/users" and "//users" all resolve identically.
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// decodePath splits a raw request path and percent-decodes each segment.
// Segments that fail to decode are kept raw rather than rejecting the request.
func decodePath(rawPath string) []string {
	parts := splitPath(rawPath)
	for i, p := range parts {
		if dec, err := url.PathUnescape(p); err == nil {
			parts[i] = dec
		}
	}
	return parts
}
