package routekit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit"
	"github.com/dmitrymomot/routekit/core/schema"
)

func okHandler(ctx *routekit.Context) error {
	return ctx.Send(map[string]any{"ok": true})
}

func getRoute(pattern string) *routekit.Route {
	return &routekit.Route{
		Pattern:  pattern,
		Handlers: map[string]routekit.HandlerFunc{"GET": okHandler},
	}
}

func TestTableRegister(t *testing.T) {
	t.Parallel()

	t.Run("rejects nil route", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		err := table.Register(nil)
		require.ErrorIs(t, err, routekit.ErrNilRoute)
	})

	t.Run("rejects route without handlers", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		err := table.Register(&routekit.Route{Pattern: "/users"})
		require.ErrorIs(t, err, routekit.ErrNilHandler)
	})

	t.Run("rejects unknown http method", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		err := table.Register(&routekit.Route{
			Pattern:  "/users",
			Handlers: map[string]routekit.HandlerFunc{"TRACE": okHandler},
		})
		require.ErrorIs(t, err, routekit.ErrInvalidMethod)
	})

	t.Run("rejects pattern without leading slash", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		err := table.Register(getRoute("users"))
		require.ErrorIs(t, err, routekit.ErrInvalidPattern)
	})

	t.Run("rejects unnamed param", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		err := table.Register(getRoute("/users/:"))
		require.ErrorIs(t, err, routekit.ErrEmptyParam)
	})

	t.Run("rejects duplicate param names", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		err := table.Register(getRoute("/users/:id/posts/:id"))
		require.ErrorIs(t, err, routekit.ErrDuplicateParam)
	})

	t.Run("duplicate path disables both definitions", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users")))
		require.NoError(t, table.Register(getRoute("/users")))

		require.Len(t, table.Routes(), 1)
		require.Len(t, table.Warnings(), 1)
		assert.Contains(t, table.Warnings()[0].Reason, "duplicate route path")

		rt, _, found := table.Resolve("/users")
		require.True(t, found)
		settings := rt.ResolvedSettings(routekit.Settings{}, "GET")
		assert.True(t, settings.Disabled, "conflicted route must resolve as disabled")
	})
}

func TestTableResolve(t *testing.T) {
	t.Parallel()

	t.Run("matches static path", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users")))

		rt, params, found := table.Resolve("/users")
		require.True(t, found)
		assert.Equal(t, "/users", rt.Pattern)
		assert.Empty(t, params)
	})

	t.Run("extracts path parameters", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users/:userId/posts/:postId")))

		_, params, found := table.Resolve("/users/42/posts/7")
		require.True(t, found)
		assert.Equal(t, "42", params["userId"])
		assert.Equal(t, "7", params["postId"])
	})

	t.Run("percent decodes path segments", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users/:name")))

		_, params, found := table.Resolve("/users/John%20Doe")
		require.True(t, found)
		assert.Equal(t, "John Doe", params["name"])
	})

	t.Run("trailing slash resolves identically", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users")))

		_, _, found := table.Resolve("/users/")
		assert.True(t, found)
	})

	t.Run("no match for extra segments", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users")))

		_, _, found := table.Resolve("/users/42")
		assert.False(t, found)
	})

	t.Run("first match in registration order wins", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users/:id")))
		require.NoError(t, table.Register(getRoute("/users/me")))

		// "/users/me" also matches "/users/:id", which was registered first.
		rt, params, found := table.Resolve("/users/me")
		require.True(t, found)
		assert.Equal(t, "/users/:id", rt.Pattern)
		assert.Equal(t, "me", params["id"])
	})
}

func TestTableReserve(t *testing.T) {
	t.Parallel()

	t.Run("reserved route drops later user route", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Reserve(getRoute("/health")))
		require.NoError(t, table.Register(getRoute("/health")))

		rt, _, found := table.Resolve("/health")
		require.True(t, found)
		assert.True(t, rt.Reserved)
		require.Len(t, table.Warnings(), 1)
	})

	t.Run("reserved route evicts earlier user route", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/health")))
		require.NoError(t, table.Reserve(getRoute("/health")))

		rt, _, found := table.Resolve("/health")
		require.True(t, found)
		assert.True(t, rt.Reserved)
		require.Len(t, table.Routes(), 1)
	})
}

func TestTableBindSchemas(t *testing.T) {
	t.Parallel()

	t.Run("binds schema by path", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		require.NoError(t, table.Register(getRoute("/users/:userId")))

		s := &schema.Schema{Path: "/users/:userId"}
		table.BindSchemas(s)

		rt, ok := table.Lookup("/users/:userId")
		require.True(t, ok)
		assert.Same(t, s, rt.Schema)
		assert.Empty(t, table.Warnings())
	})

	t.Run("orphan schema produces warning", func(t *testing.T) {
		t.Parallel()

		table := routekit.NewTable()
		table.BindSchemas(&schema.Schema{Path: "/missing"})

		require.Len(t, table.Warnings(), 1)
		assert.Contains(t, table.Warnings()[0].Reason, "no matching route")
	})
}

func TestRouteResolvedSettings(t *testing.T) {
	t.Parallel()

	t.Run("method layer overrides route layer", func(t *testing.T) {
		t.Parallel()

		rt := &routekit.Route{
			Pattern: "/posts",
			Handlers: map[string]routekit.HandlerFunc{
				"GET":  okHandler,
				"POST": okHandler,
			},
			Settings: &routekit.SettingsOverride{Unauthed: boolPtr(true)},
			MethodSettings: map[string]*routekit.SettingsOverride{
				"POST": {Unauthed: boolPtr(false)},
			},
		}

		assert.True(t, rt.ResolvedSettings(routekit.Settings{}, "GET").Unauthed)
		assert.False(t, rt.ResolvedSettings(routekit.Settings{}, "POST").Unauthed)
	})

	t.Run("defaults apply when layers are silent", func(t *testing.T) {
		t.Parallel()

		rt := getRoute("/posts")
		settings := rt.ResolvedSettings(routekit.Settings{Unauthed: true}, "GET")
		assert.True(t, settings.Unauthed)
	})
}

func TestRouteResolvedRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("nil when nothing configured", func(t *testing.T) {
		t.Parallel()

		rt := getRoute("/posts")
		assert.Nil(t, rt.ResolvedRateLimit(nil, "GET"))
	})

	t.Run("nil when merged limit is zero", func(t *testing.T) {
		t.Parallel()

		rt := getRoute("/posts")
		rt.RateLimits = &routekit.RateLimitOverride{Limit: intPtr(0)}
		assert.Nil(t, rt.ResolvedRateLimit(nil, "GET"))
	})

	t.Run("defaults fill type and scope", func(t *testing.T) {
		t.Parallel()

		rt := getRoute("/posts")
		rt.RateLimits = &routekit.RateLimitOverride{Limit: intPtr(5)}

		rl := rt.ResolvedRateLimit(nil, "GET")
		require.NotNil(t, rl)
		assert.Equal(t, 5, rl.Limit)
		assert.Equal(t, routekit.BucketEndpoint, rl.Type)
		assert.Equal(t, routekit.ScopeIP, rl.Scope)
	})

	t.Run("method layer overrides route layer", func(t *testing.T) {
		t.Parallel()

		rt := &routekit.Route{
			Pattern: "/posts",
			Handlers: map[string]routekit.HandlerFunc{
				"GET":  okHandler,
				"POST": okHandler,
			},
			RateLimits: &routekit.RateLimitOverride{Limit: intPtr(100)},
			MethodRateLimits: map[string]*routekit.RateLimitOverride{
				"POST": {Limit: intPtr(3)},
			},
		}

		require.Equal(t, 100, rt.ResolvedRateLimit(nil, "GET").Limit)
		require.Equal(t, 3, rt.ResolvedRateLimit(nil, "POST").Limit)
	})
}

func TestRouteMethods(t *testing.T) {
	t.Parallel()

	rt := &routekit.Route{
		Pattern: "/posts",
		Handlers: map[string]routekit.HandlerFunc{
			"POST":   okHandler,
			"GET":    okHandler,
			"DELETE": okHandler,
		},
	}
	assert.Equal(t, []string{"DELETE", "GET", "POST"}, rt.Methods())
}
