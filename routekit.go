package routekit

import "context"

// HandlerFunc processes a request. Handlers and middleware entries respond by
// returning the result of Context.Send or Context.Throw, which is ErrStop; a
// nil return from a middleware entry passes control to the next stage, and any
// other error is a fault.
type HandlerFunc func(ctx *Context) error

// AuthResolver exchanges a bearer token for an application-defined principal.
// A nil principal means the credential did not resolve; the pipeline decides
// whether that is fatal based on the route's settings. The resolver may block
// on external systems; the pipeline waits for it.
type AuthResolver func(ctx context.Context, token string) (any, error)

// ErrorReporter receives every uncaught middleware/handler fault before the
// pipeline converts it into a 500 response.
type ErrorReporter func(ctx *Context, err error)
