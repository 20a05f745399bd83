package routekit

import (
	"fmt"

	"github.com/dmitrymomot/routekit/core/schema"
)

// Warning records a non-fatal registration problem. Warnings are surfaced to
// the caller for startup reporting instead of failing the boot.
type Warning struct {
	Pattern string
	Reason  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Pattern, w.Reason)
}

// Table owns the set of registered routes. It is built once at startup and is
// read-only during request handling, so Resolve needs no locking.
//
// Resolution is first-match in registration order, not most-specific-match.
// Overlapping dynamic patterns therefore depend on registration order; this is
// a documented configuration hazard, and callers must register more specific
// patterns first.
type Table struct {
	routes   []*Route
	byPath   map[string]*Route
	warnings []Warning
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{byPath: make(map[string]*Route)}
}

// Register adds a user route. Patterns act as keys: registering the same
// pattern twice is a duplicate-path conflict, which collapses both routes into
// one force-disabled entry rather than silently keeping either. A user route
// at a path already reserved by the framework is dropped.
func (t *Table) Register(rt *Route) error {
	if rt == nil {
		return ErrNilRoute
	}
	if err := rt.validate(); err != nil {
		return err
	}

	if prev, ok := t.byPath[rt.Pattern]; ok {
		if prev.Reserved {
			t.warn(rt.Pattern, "path is reserved by the framework, user route dropped")
			return nil
		}
		// Both user routes. Keep a single entry but make it unreachable.
		t.remove(prev)
		rt.conflicted = true
		t.warn(rt.Pattern, "duplicate route path, both definitions disabled")
	}

	t.byPath[rt.Pattern] = rt
	t.routes = append(t.routes, rt)
	return nil
}

// Reserve adds a framework-owned route. Any user route already occupying the
// path is dropped with a warning, guaranteeing reserved routes always win.
func (t *Table) Reserve(rt *Route) error {
	if rt == nil {
		return ErrNilRoute
	}
	rt.Reserved = true
	if err := rt.validate(); err != nil {
		return err
	}

	if prev, ok := t.byPath[rt.Pattern]; ok {
		t.remove(prev)
		if !prev.Reserved {
			t.warn(rt.Pattern, "user route shadowed a reserved path and was dropped")
		}
	}

	t.byPath[rt.Pattern] = rt
	t.routes = append(t.routes, rt)
	return nil
}

// Resolve matches a raw URL path against registered routes in registration
// order and returns the first match with its percent-decoded path parameters.
func (t *Table) Resolve(rawPath string) (*Route, map[string]string, bool) {
	parts := decodePath(rawPath)
	for _, rt := range t.routes {
		if params, ok := rt.match(parts); ok {
			return rt, params, true
		}
	}
	return nil, nil, false
}

// BindSchemas attaches schemas to routes by path equality. Schemas without a
// matching route are recorded as orphan warnings.
func (t *Table) BindSchemas(schemas ...*schema.Schema) {
	for _, s := range schemas {
		if s == nil {
			continue
		}
		rt, ok := t.byPath[s.Path]
		if !ok {
			t.warn(s.Path, "schema has no matching route")
			continue
		}
		rt.Schema = s
	}
}

// Routes returns registered routes in registration order.
func (t *Table) Routes() []*Route {
	return t.routes
}

// Lookup returns the route registered at the exact pattern, if any.
func (t *Table) Lookup(pattern string) (*Route, bool) {
	rt, ok := t.byPath[pattern]
	return rt, ok
}

// Warnings returns all registration and binding warnings collected so far.
func (t *Table) Warnings() []Warning {
	return t.warnings
}

func (t *Table) warn(pattern, reason string) {
	t.warnings = append(t.warnings, Warning{Pattern: pattern, Reason: reason})
}

func (t *Table) remove(rt *Route) {
	delete(t.byPath, rt.Pattern)
	for i, r := range t.routes {
		if r == rt {
			t.routes = append(t.routes[:i], t.routes[i+1:]...)
			return
		}
	}
}
