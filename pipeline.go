package routekit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/routekit/core/schema"
	"github.com/dmitrymomot/routekit/core/upload"
	"github.com/dmitrymomot/routekit/pkg/clientip"
	"github.com/dmitrymomot/routekit/pkg/logger"
	"github.com/dmitrymomot/routekit/pkg/ratelimiter"
)

// Pipeline orchestrates request processing: resolve the route, apply gates,
// enforce rate limits, authorize, run the middleware chain, validate against
// the route's schema, and dispatch to the handler. Every request terminates
// with exactly one response no matter which stage stops it.
type Pipeline struct {
	table    *Table
	chain    *Chain
	store    ratelimiter.Store
	resolver AuthResolver
	reporter ErrorReporter
	uploads  *upload.Parser
	level    EnvelopeLevel
	logger   *slog.Logger

	defaultSettings  Settings
	defaultRateLimit *RateLimit
}

// New creates a pipeline over a finished route table.
func New(table *Table, opts ...Option) *Pipeline {
	if table == nil {
		panic("routekit: route table is required")
	}

	p := &Pipeline{
		table:  table,
		level:  LevelFull,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, w := range table.Warnings() {
		p.logger.LogAttrs(context.Background(), slog.LevelWarn, "route registration warning",
			logger.Component("pipeline"),
			logger.Path(w.Pattern),
			slog.String("reason", w.Reason))
	}

	return p
}

// ServeHTTP implements http.Handler.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := &responseWriter{ResponseWriter: w}
	ctx := newContext(ww, r, p.level)

	// Panics anywhere in the pipeline count as handler faults.
	defer func() {
		if rec := recover(); rec != nil {
			p.fault(ctx, toError(rec))
		}
	}()

	p.serve(ctx)

	p.logger.LogAttrs(r.Context(), slog.LevelDebug, "request completed",
		logger.Component("pipeline"),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		logger.StatusCode(ww.Status()),
		logger.BytesOut(int64(ww.Size())),
		logger.Duration(time.Since(ctx.started)))
}

// serve runs the stage sequence. Stages execute strictly in order; every exit
// path has produced exactly one response.
func (p *Pipeline) serve(ctx *Context) {
	r := ctx.r
	method := strings.ToUpper(r.Method)

	// Resolving
	route, params, ok := p.table.Resolve(r.URL.Path)
	if !ok {
		_ = ctx.sendError(ErrNotFound)
		return
	}
	ctx.route = route
	ctx.params = params

	// Gated
	st := route.ResolvedSettings(p.defaultSettings, method)
	if st.Disabled {
		_ = ctx.sendError(ErrRouteDisabled)
		return
	}
	if st.Moved != "" {
		ctx.w.Header().Set("Location", st.Moved)
		_ = ctx.Send(map[string]any{"location": st.Moved},
			WithStatus(http.StatusMovedPermanently),
			WithMessage("moved permanently"))
		return
	}

	// RateLimited-check; admission is atomic with the check inside the store.
	if rl := route.ResolvedRateLimit(p.defaultRateLimit, method); rl != nil && p.store != nil {
		limited, ok := p.checkRateLimit(ctx, route, method, rl)
		if !ok {
			return
		}
		if limited {
			_ = ctx.sendError(ErrTooManyRequests)
			return
		}
	}

	// Authorizing
	if !p.authorize(ctx, st) {
		return
	}

	// Middleware
	if err := p.chain.run(ctx); err != nil {
		if errors.Is(err, ErrStop) {
			return
		}
		p.fault(ctx, err)
		return
	}

	// Validating
	if !p.validate(ctx, route, method, st) {
		return
	}

	// Dispatching
	h := route.Handlers[method]
	if h == nil {
		ctx.w.Header().Set("Allow", strings.Join(route.Methods(), ", "))
		_ = ctx.sendError(ErrMethodNotAllowed)
		return
	}
	if err := h(ctx); err != nil {
		if errors.Is(err, ErrStop) {
			return
		}
		p.fault(ctx, err)
		return
	}
	if !ctx.Responded() {
		// Handler finished without responding; exactly-once still holds.
		_ = ctx.Send(nil)
	}
}

// checkRateLimit performs the atomic check-then-admit and always reports the
// standard X-RateLimit-* headers. A store failure responds 500 and returns
// ok=false.
func (p *Pipeline) checkRateLimit(ctx *Context, route *Route, method string, rl *RateLimit) (limited, ok bool) {
	res, err := p.store.Take(ctx.r.Context(), p.clientKey(ctx, rl.Scope), routeKey(ctx, route, method, rl.Type), ratelimiter.Config{
		Limit:      rl.Limit,
		Remember:   rl.Remember,
		Punishment: rl.Punishment,
		Strict:     rl.Strict,
	})
	if err != nil {
		p.fault(ctx, err)
		return false, false
	}

	h := ctx.w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	h.Set("X-RateLimit-Reset-After", strconv.FormatInt(res.ResetAfter().Milliseconds(), 10))
	h.Set("X-RateLimit-Scope", string(rl.Scope))

	return res.Limited, true
}

// clientKey derives the client half of the bucket key from the route's scope.
// The limiter runs before authorization, so under ScopeAuthentication the raw
// credential stands in for the principal; anonymous callers fall back to IP.
func (p *Pipeline) clientKey(ctx *Context, scope Scope) string {
	switch scope {
	case ScopeGlobal:
		return "global"
	case ScopeAuthentication:
		if token := bearerToken(ctx.r); token != "" {
			return "token:" + token
		}
		return "ip:" + clientip.GetIP(ctx.r)
	default:
		return "ip:" + clientip.GetIP(ctx.r)
	}
}

// routeKey derives the route half of the bucket key. Endpoint buckets are
// shared across parameter values; parameter buckets key on the concrete URL.
func routeKey(ctx *Context, route *Route, method string, typ BucketType) string {
	if typ == BucketParameter {
		return method + " " + ctx.r.URL.Path
	}
	return method + " " + route.Pattern
}

// authorize resolves the caller's principal or rejects with 401. It returns
// false when a response was produced.
func (p *Pipeline) authorize(ctx *Context, st Settings) bool {
	if st.AuthOverwrite != nil {
		ok, err := st.AuthOverwrite(ctx)
		if err != nil || !ok {
			if !ctx.Responded() {
				_ = ctx.sendError(ErrUnauthorized)
			}
			return false
		}
		// Custom authorization passed; the standard token flow is skipped.
		return true
	}

	token := bearerToken(ctx.r)
	if token == "" {
		if !st.Unauthed {
			_ = ctx.sendError(ErrUnauthorized)
			return false
		}
		return true
	}

	var principal any
	if p.resolver != nil {
		resolved, err := p.resolver(ctx.r.Context(), token)
		if err == nil {
			principal = resolved
		}
	}
	if principal == nil {
		if !st.Unauthed {
			_ = ctx.sendError(ErrUnauthorized)
			return false
		}
		return true
	}

	ctx.principal = principal
	return true
}

// validate runs the route's schema across the independent request categories
// and rebinds the coerced values. It returns false when a response was
// produced.
func (p *Pipeline) validate(ctx *Context, route *Route, method string, st Settings) bool {
	s := route.Schema
	if s == nil {
		return true
	}

	in := schema.Input{
		Params: ctx.params,
		Query:  ctx.r.URL.Query(),
	}

	if method != "GET" {
		if _, hasBodySchema := s.Body[method]; hasBodySchema {
			body, err := decodeBody(ctx.r)
			if err != nil {
				// Malformed at the transport level: 400 without the schema marker.
				_ = ctx.sendError(ErrBadRequest.WithMessage("malformed request body"))
				return false
			}
			in.Body = body
			in.HasBody = body != nil
		}
	}

	if st.Upload && p.uploads != nil && isMultipart(ctx.r) {
		files, err := p.uploads.Parse(ctx.r)
		if err != nil {
			_ = ctx.sendError(ErrBadRequest.WithMessage("malformed multipart body"))
			return false
		}
		ctx.files = files
	}
	if _, hasFilesSchema := s.Files[method]; hasFilesSchema {
		files := ctx.files
		if files == nil {
			files = []upload.File{}
		}
		in.Files = files
	}

	out := schema.Check(s, method, in)

	// Rebind coerced values for the categories that passed. On a failed
	// request partial rebind is an implementation detail, not a contract.
	if out.Body != nil && out.Body.Valid() {
		ctx.body = out.Body.Value
	}
	if out.Params != nil && out.Params.Valid() {
		ctx.coercedParam = out.Params.Value
	}
	if out.Query != nil && out.Query.Valid() {
		ctx.query = out.Query.Value
	}

	if !out.Valid() {
		ctx.w.Header().Set("X-Validation-Error", "schema")
		_ = ctx.Send(out.Payload(),
			WithStatus(http.StatusBadRequest),
			AsError(),
			WithMessage(ErrValidationFailed.Message))
		return false
	}

	return true
}

// fault reports an uncaught error to the host and converts it to a 500. The
// write-once guard keeps late faults from producing a second response.
func (p *Pipeline) fault(ctx *Context, err error) {
	if p.reporter != nil {
		p.reporter(ctx, err)
	}

	p.logger.LogAttrs(ctx.r.Context(), slog.LevelError, "request failed",
		logger.Component("pipeline"),
		logger.Method(ctx.r.Method),
		logger.Path(ctx.r.URL.Path),
		logger.Error(err))

	if !ctx.Responded() {
		_ = ctx.sendError(ErrInternalServerError)
	}
}

// bearerToken extracts the credential from the Authorization header, with or
// without the Bearer scheme prefix.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return h
}

// decodeBody reads and JSON-decodes the request body. An empty body decodes
// to nil without error.
func decodeBody(r *http.Request) (any, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func isMultipart(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && strings.HasPrefix(mt, "multipart/")
}

// toError converts a recovered panic value to an error.
func toError(v any) error {
	switch e := v.(type) {
	case error:
		return e
	case string:
		return errors.New(e)
	default:
		return fmt.Errorf("panic: %v", e)
	}
}
