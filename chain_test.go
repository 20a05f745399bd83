package routekit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit"
)

func TestNewChain(t *testing.T) {
	t.Parallel()

	t.Run("orders entries by sort key", func(t *testing.T) {
		t.Parallel()

		chain := routekit.NewChain(
			routekit.Entry{SortKey: "20_logging", Fn: okHandler},
			routekit.Entry{SortKey: "00_request_id", Fn: okHandler},
			routekit.Entry{SortKey: "10_throttle", Fn: okHandler},
		)

		entries := chain.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, "00_request_id", entries[0].SortKey)
		assert.Equal(t, "10_throttle", entries[1].SortKey)
		assert.Equal(t, "20_logging", entries[2].SortKey)
	})

	t.Run("lexicographic order beats numeric intuition", func(t *testing.T) {
		t.Parallel()

		chain := routekit.NewChain(
			routekit.Entry{SortKey: "2_b", Fn: okHandler},
			routekit.Entry{SortKey: "10_a", Fn: okHandler},
		)

		// "10_a" < "2_b" lexicographically.
		entries := chain.Entries()
		assert.Equal(t, "10_a", entries[0].SortKey)
		assert.Equal(t, "2_b", entries[1].SortKey)
	})

	t.Run("stable for equal keys", func(t *testing.T) {
		t.Parallel()

		var order []int
		mk := func(n int) routekit.HandlerFunc {
			return func(ctx *routekit.Context) error {
				order = append(order, n)
				return nil
			}
		}

		chain := routekit.NewChain(
			routekit.Entry{SortKey: "same", Fn: mk(1)},
			routekit.Entry{SortKey: "same", Fn: mk(2)},
			routekit.Entry{SortKey: "same", Fn: mk(3)},
		)
		require.Len(t, chain.Entries(), 3)
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		t.Parallel()

		entries := []routekit.Entry{
			{SortKey: "b", Fn: okHandler},
			{SortKey: "a", Fn: okHandler},
		}
		routekit.NewChain(entries...)
		assert.Equal(t, "b", entries[0].SortKey)
	})
}
