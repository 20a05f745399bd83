package routekit

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/routekit/core/upload"
)

// Context carries one request through the pipeline and into the handler.
// It delegates context.Context methods to the request's context, exposes the
// resolved route material, and owns the Send/Throw response primitives.
type Context struct {
	w     *responseWriter
	r     *http.Request
	route *Route

	params       map[string]string
	coercedParam any
	query        any
	body         any
	files        []upload.File
	principal    any
	values       map[any]any

	level   EnvelopeLevel
	started time.Time
}

func newContext(w *responseWriter, r *http.Request, level EnvelopeLevel) *Context {
	return &Context{
		w:       w,
		r:       r,
		level:   level,
		started: time.Now(),
	}
}

// Deadline delegates to the request context.
func (c *Context) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }

// Done delegates to the request context.
func (c *Context) Done() <-chan struct{} { return c.r.Context().Done() }

// Err delegates to the request context.
func (c *Context) Err() error { return c.r.Context().Err() }

// Value returns values set with SetValue, falling back to the request context.
func (c *Context) Value(key any) any {
	if c.values != nil {
		if v, ok := c.values[key]; ok {
			return v
		}
	}
	return c.r.Context().Value(key)
}

// SetValue stores a request-scoped value visible to later pipeline stages.
func (c *Context) SetValue(key, val any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = val
}

// Request returns the underlying *http.Request.
func (c *Context) Request() *http.Request { return c.r }

// ResponseWriter returns the response writer. Writing through it directly
// counts as a response for the exactly-once guarantee.
func (c *Context) ResponseWriter() http.ResponseWriter { return c.w }

// Method returns the request method.
func (c *Context) Method() string { return c.r.Method }

// Path returns the request URL path.
func (c *Context) Path() string { return c.r.URL.Path }

// Route returns the resolved route, nil before resolution.
func (c *Context) Route() *Route { return c.route }

// Param returns one extracted path parameter.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// Params returns all extracted path parameters.
func (c *Context) Params() map[string]string { return c.params }

// CoercedParams returns the schema-coerced path parameters, or nil when the
// route has no params schema.
func (c *Context) CoercedParams() any { return c.coercedParam }

// Query returns the parsed query. After schema validation this is the coerced
// value; otherwise it falls back to the raw url.Values.
func (c *Context) Query() any {
	if c.query != nil {
		return c.query
	}
	return c.r.URL.Query()
}

// RawQuery returns the unparsed query values.
func (c *Context) RawQuery() url.Values { return c.r.URL.Query() }

// Body returns the parsed request body. After schema validation this is the
// coerced value.
func (c *Context) Body() any { return c.body }

// Files returns the parsed multipart file descriptors, if any.
func (c *Context) Files() []upload.File { return c.files }

// Principal returns the authenticated principal set during authorization.
func (c *Context) Principal() (any, bool) {
	return c.principal, c.principal != nil
}

// Responded reports whether a response has been produced for this request.
func (c *Context) Responded() bool { return c.w.Written() }

// SendOption adjusts one Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	status  int
	code    int
	message string
	isError bool
}

// WithStatus sets the HTTP status code (default 200).
func WithStatus(status int) SendOption {
	return func(o *sendOptions) { o.status = status }
}

// WithCode sets the envelope code field (defaults to the HTTP status).
func WithCode(code int) SendOption {
	return func(o *sendOptions) { o.code = code }
}

// WithMessage sets the envelope message field.
func WithMessage(message string) SendOption {
	return func(o *sendOptions) { o.message = message }
}

// AsError marks the envelope as error-shaped.
func AsError() SendOption {
	return func(o *sendOptions) { o.isError = true }
}

// Send writes exactly one response and terminates pipeline processing by
// returning ErrStop. Calling Send after a response exists violates the
// exactly-once invariant and panics.
func (c *Context) Send(data any, opts ...SendOption) error {
	o := sendOptions{status: http.StatusOK}
	for _, opt := range opts {
		opt(&o)
	}
	if o.code == 0 {
		o.code = o.status
	}
	return c.send(o.status, o.isError, o.code, o.message, data)
}

// Throw writes an error-shaped response with the given status.
func (c *Context) Throw(status int, data any) error {
	return c.send(status, true, status, http.StatusText(status), data)
}

// sendError writes a predefined Error as the response envelope.
func (c *Context) sendError(e Error) error {
	var data any
	if e.Details != nil {
		data = e.Details
	}
	return c.send(e.Status, true, e.Status, e.Message, data)
}

func (c *Context) send(status int, isError bool, code int, message string, data any) error {
	if c.w.Written() {
		// Two responses for one request is a contract violation, not a
		// recoverable condition.
		panic("routekit: response already written for this request")
	}

	var route *RouteInfo
	if c.route != nil {
		route = &RouteInfo{Path: c.route.Pattern, Methods: c.route.Methods()}
	}

	_ = writeEnvelope(c.w, c.level, status, envelope{
		Error:      isError,
		Code:       code,
		Message:    message,
		DurationMS: float64(time.Since(c.started).Microseconds()) / 1000.0,
		Route:      route,
		Data:       data,
	})

	return ErrStop
}
