package schema

import "net/url"

// ErrorTree is a nested field-to-message error structure produced by a failed
// validation. Leaf values are strings or string slices; branches are nested
// ErrorTree values.
type ErrorTree map[string]any

// Validator validates a value and returns the parsed/coerced result.
// A nil ErrorTree means the value is valid.
type Validator interface {
	Validate(value any) (any, ErrorTree)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(value any) (any, ErrorTree)

// Validate implements Validator.
func (f ValidatorFunc) Validate(value any) (any, ErrorTree) {
	return f(value)
}

// Schema is the validation definition for one route, keyed by the route's
// path. Body, Query and Files validators are per HTTP method; Params is
// shared across all methods of the route.
type Schema struct {
	Path   string
	Params Validator
	Body   map[string]Validator
	Query  map[string]Validator
	Files  map[string]Validator
}

// Input carries the raw request material for one validation pass.
type Input struct {
	// Body is the decoded request body; only consulted for non-GET methods.
	Body any
	// HasBody reports whether a body was present at all.
	HasBody bool
	// Params are the extracted path parameters.
	Params map[string]string
	// Query is the raw query string.
	Query url.Values
	// Files is the raw, always-array file list. Cardinality and type checks
	// are the schema's responsibility, not this package's.
	Files any
}

// Checked is the per-category validation result: either a coerced value or an
// error tree, never both.
type Checked struct {
	Value  any
	Errors ErrorTree
}

// Valid reports whether the category passed (or was never validated).
func (c *Checked) Valid() bool {
	return c == nil || len(c.Errors) == 0
}

// Outcome aggregates the independent category results. A nil category means
// the schema defines no validator for it.
type Outcome struct {
	Body   *Checked
	Params *Checked
	Query  *Checked
	Files  *Checked
}

// Valid reports whether every validated category passed.
func (o Outcome) Valid() bool {
	return o.Body.Valid() && o.Params.Valid() && o.Query.Valid() && o.Files.Valid()
}

// Payload builds the per-category error tree for a 400 response body.
func (o Outcome) Payload() map[string]any {
	out := make(map[string]any)
	if !o.Body.Valid() {
		out["body"] = o.Body.Errors
	}
	if !o.Params.Valid() {
		out["params"] = o.Params.Errors
	}
	if !o.Query.Valid() {
		out["query"] = o.Query.Errors
	}
	if !o.Files.Valid() {
		out["files"] = o.Files.Errors
	}
	return out
}

// Check runs every applicable category of the schema against the input.
// Categories are independent; a nil schema validates nothing.
func Check(s *Schema, method string, in Input) Outcome {
	var o Outcome
	if s == nil {
		return o
	}

	if method != "GET" {
		if v, ok := s.Body[method]; ok && v != nil {
			value, errs := v.Validate(in.Body)
			o.Body = &Checked{Value: value, Errors: errs}
		}
	}

	if s.Params != nil {
		value, errs := s.Params.Validate(paramsValue(in.Params))
		o.Params = &Checked{Value: value, Errors: errs}
	}

	if v, ok := s.Query[method]; ok && v != nil {
		value, errs := v.Validate(queryValue(in.Query))
		o.Query = &Checked{Value: value, Errors: errs}
	}

	if v, ok := s.Files[method]; ok && v != nil {
		value, errs := v.Validate(in.Files)
		o.Files = &Checked{Value: value, Errors: errs}
	}

	return o
}

// paramsValue widens path params into the generic map shape validators expect.
func paramsValue(params map[string]string) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// queryValue flattens url.Values: single values become strings, repeated keys
// stay slices so array validations see every occurrence.
func queryValue(q url.Values) map[string]any {
	out := make(map[string]any, len(q))
	for k, vs := range q {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		out[k] = vs
	}
	return out
}
