package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit"
	"github.com/dmitrymomot/routekit/middleware"
)

// newPipeline builds a single-route pipeline running the given chain entries
// before the handler.
func newPipeline(t *testing.T, h routekit.HandlerFunc, entries ...routekit.Entry) *routekit.Pipeline {
	t.Helper()

	unauthed := true
	table := routekit.NewTable()
	require.NoError(t, table.Register(&routekit.Route{
		Pattern:  "/test",
		Handlers: map[string]routekit.HandlerFunc{"GET": h},
		Settings: &routekit.SettingsOverride{Unauthed: &unauthed},
	}))

	return routekit.New(table, routekit.WithChain(routekit.NewChain(entries...)))
}

func echoHandler(ctx *routekit.Context) error {
	return ctx.Send(nil)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates uuid and sets header", func(t *testing.T) {
		t.Parallel()

		var seen string
		p := newPipeline(t,
			func(ctx *routekit.Context) error {
				id, ok := middleware.GetRequestID(ctx)
				require.True(t, ok)
				seen = id
				return ctx.Send(nil)
			},
			routekit.Entry{SortKey: "00", Fn: middleware.RequestID()},
		)

		w := httptest.NewRecorder()
		p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("reuses incoming id when configured", func(t *testing.T) {
		t.Parallel()

		p := newPipeline(t, echoHandler,
			routekit.Entry{SortKey: "00", Fn: middleware.RequestIDWithConfig(middleware.RequestIDConfig{
				UseExisting: true,
			})},
		)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "incoming-id")
		w := httptest.NewRecorder()
		p.ServeHTTP(w, req)

		assert.Equal(t, "incoming-id", w.Header().Get("X-Request-ID"))
	})

	t.Run("custom generator and header", func(t *testing.T) {
		t.Parallel()

		p := newPipeline(t, echoHandler,
			routekit.Entry{SortKey: "00", Fn: middleware.RequestIDWithConfig(middleware.RequestIDConfig{
				HeaderName: "X-Trace-ID",
				Generator:  func() string { return "fixed" },
			})},
		)

		w := httptest.NewRecorder()
		p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "fixed", w.Header().Get("X-Trace-ID"))
	})

	t.Run("skip leaves request untouched", func(t *testing.T) {
		t.Parallel()

		p := newPipeline(t, echoHandler,
			routekit.Entry{SortKey: "00", Fn: middleware.RequestIDWithConfig(middleware.RequestIDConfig{
				Skip: func(ctx *routekit.Context) bool { return true },
			})},
		)

		w := httptest.NewRecorder()
		p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Empty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("get request id without middleware", func(t *testing.T) {
		t.Parallel()

		p := newPipeline(t, func(ctx *routekit.Context) error {
			_, ok := middleware.GetRequestID(ctx)
			assert.False(t, ok)
			return ctx.Send(nil)
		})

		w := httptest.NewRecorder()
		p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
