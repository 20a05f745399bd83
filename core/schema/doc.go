// Package schema associates validation schemas with routes and runs
// per-category request validation.
//
// A Schema carries up to four independent categories: body (per method,
// non-GET only), params (one validator shared by all methods), query (per
// method) and files (per method, validated against the raw always-array file
// list). Categories validate independently: a request's body can fail while
// its params pass. Any failing category marks the whole request invalid.
//
// Validators return the coerced/parsed value on success so callers can rebind
// it onto the request, so defaults and type coercions applied by the schema
// take effect. The schema-description language itself is out of scope; anything
// implementing Validator plugs in, and the Rules validator in this package
// covers the common declarative cases.
package schema
