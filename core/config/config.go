// Package config provides type-safe environment variable loading with
// per-type caching. A .env file is loaded once on first use; parsing is
// delegated to caarlos0/env struct tags.
package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]reflect.Value)
)

// Load populates cfg (a non-nil struct pointer) from the environment.
// Each struct type is parsed once per process; later calls for the same type
// receive the cached value.
func Load(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: Load expects a non-nil struct pointer, got %T", cfg)
	}

	dotenvOnce.Do(func() {
		// Missing .env files are fine; real env vars still apply.
		_ = godotenv.Load()
	})

	t := v.Elem().Type()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[t]; ok {
		v.Elem().Set(cached)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", t, err)
	}

	// Cache a copy so later mutations of the caller's struct stay local.
	cache[t] = reflect.ValueOf(v.Elem().Interface())
	return nil
}

// MustLoad is Load that panics on failure, for use during startup.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
