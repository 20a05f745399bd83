// Package routekit implements the request-processing core of a file-routed
// HTTP API server. It resolves incoming paths against a registered route
// table, enforces per-route rate limits with punitive backoff, authorizes the
// caller, runs an ordered chain of cross-cutting middleware, validates the
// request against a per-route schema, and dispatches to exactly one handler.
//
// Exactly one response is produced per request regardless of where in the
// pipeline processing stops. Deliberate early responses (a middleware or
// handler calling Context.Send) are signalled with ErrStop and are never
// confused with real failures.
package routekit
