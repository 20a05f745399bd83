package routekit

import "sort"

// Entry is one middleware chain element. SortKey is the full discovery path
// of the middleware file; the chain executes entries in ascending lexicographic
// SortKey order, so load order on disk never changes execution order.
type Entry struct {
	SortKey string
	Fn      HandlerFunc
}

// Chain is the ordered list of request observers and short-circuiters, built
// once at startup and immutable afterwards.
type Chain struct {
	entries []Entry
}

// NewChain builds a chain from entries, sorting them by SortKey. The sort is
// stable so entries sharing a key keep their given order.
func NewChain(entries ...Entry) *Chain {
	c := &Chain{entries: make([]Entry, len(entries))}
	copy(c.entries, entries)
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].SortKey < c.entries[j].SortKey
	})
	return c
}

// Entries returns the chain in execution order.
func (c *Chain) Entries() []Entry {
	return c.entries
}

// run executes entries sequentially, awaiting each before the next so later
// entries observe effects of earlier ones. It returns ErrStop when an entry
// responded early, or the entry's real error.
func (c *Chain) run(ctx *Context) error {
	if c == nil {
		return nil
	}
	for _, e := range c.entries {
		if e.Fn == nil {
			continue
		}
		if err := e.Fn(ctx); err != nil {
			return err
		}
	}
	return nil
}
