package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// bucket tracks usage for one (client, route) pair.
type bucket struct {
	count       int
	windowStart time.Time
	windowEnd   time.Time
	limited     bool
}

// MemoryStore implements Store using in-memory storage with a background
// sweep that evicts expired buckets whole.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	// Configuration
	sweepInterval   time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	bucketsCreated atomic.Int64
	bucketsSwept   atomic.Int64
}

// MemoryStoreStats provides observability metrics for monitoring and debugging.
type MemoryStoreStats struct {
	BucketsCreated int64 // Total number of buckets created
	BucketsSwept   int64 // Total number of expired buckets evicted
	ActiveBuckets  int   // Current number of live buckets
	IsRunning      bool  // Whether the sweep goroutine is running
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often expired buckets are evicted.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if interval > 0 {
			ms.sweepInterval = interval
		}
	}
}

// WithMemoryStoreShutdownTimeout sets the graceful shutdown timeout.
func WithMemoryStoreShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStoreLogger sets the logger for internal operations.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// NewMemoryStore creates a new in-memory store.
// Call Start() to begin the background sweep.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[string]*bucket),
		sweepInterval:   100 * time.Millisecond,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms
}

// Take implements Store. The whole check-then-admit sequence runs under one
// lock so concurrent requests on the same pair cannot interleave.
func (ms *MemoryStore) Take(ctx context.Context, clientKey, routeKey string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	key := bucketKey(clientKey, routeKey)
	b, exists := ms.buckets[key]
	if !exists {
		b = &bucket{windowStart: now, windowEnd: now.Add(cfg.Remember)}
		ms.buckets[key] = b
		ms.bucketsCreated.Add(1)
	}

	if b.count >= cfg.Limit {
		if b.limited {
			// Repeated abuse while limited re-arms the penalty in strict mode;
			// otherwise the window stays where it is.
			if cfg.Strict {
				b.windowEnd = now.Add(cfg.Punishment)
			}
		} else {
			b.limited = true
			b.windowEnd = now.Add(max(cfg.Punishment, cfg.Remember))
		}
		return ms.result(b, cfg, true), nil
	}

	b.count++
	return ms.result(b, cfg, false), nil
}

// Peek implements Store without consuming capacity.
func (ms *MemoryStore) Peek(ctx context.Context, clientKey, routeKey string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, exists := ms.buckets[bucketKey(clientKey, routeKey)]
	if !exists {
		return &Result{Limit: cfg.Limit, Remaining: cfg.Limit}, nil
	}
	return ms.result(b, cfg, b.limited && b.count >= cfg.Limit), nil
}

// Reset implements Store.
func (ms *MemoryStore) Reset(ctx context.Context, clientKey, routeKey string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, bucketKey(clientKey, routeKey))
	return nil
}

func (ms *MemoryStore) result(b *bucket, cfg Config, limited bool) *Result {
	return &Result{
		Limited:   limited,
		Limit:     cfg.Limit,
		Remaining: max(0, cfg.Limit-b.count),
		ResetAt:   b.windowEnd,
	}
}

// Sweep evicts every bucket whose window has passed. Eviction is all-or-nothing
// per bucket: this is the only way capacity recovers. It runs automatically
// from Start's loop and may be called directly.
func (ms *MemoryStore) Sweep() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	swept := 0
	for key, b := range ms.buckets {
		if !b.windowEnd.After(now) {
			delete(ms.buckets, key)
			swept++
		}
	}

	if swept > 0 {
		ms.bucketsSwept.Add(int64(swept))
	}
}

// Start begins the background sweep goroutine. This is a blocking operation
// that runs until the context is cancelled. Use Run() for errgroup pattern or
// call this in a goroutine.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store already started")
	}
	ms.ctx, ms.cancel = context.WithCancel(ctx)
	ms.mu.Unlock()

	ms.running.Store(true)
	defer ms.running.Store(false)

	ms.logger.InfoContext(ms.ctx, "rate limit sweep started",
		slog.Duration("sweep_interval", ms.sweepInterval))

	ticker := time.NewTicker(ms.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			ms.logger.InfoContext(context.Background(), "rate limit sweep stopping")
			return ms.ctx.Err()
		case <-ticker.C:
			ms.sweepWithWait()
		}
	}
}

// Stop gracefully shuts down the background sweep with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store not started")
	}

	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), ms.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the sweep, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// sweepWithWait tracks the sweep with the WaitGroup so Stop can await it.
func (ms *MemoryStore) sweepWithWait() {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return
	}
	ms.wg.Add(1)
	ms.mu.Unlock()

	defer ms.wg.Done()
	ms.Sweep()
}

// Stats returns current memory store statistics for observability.
// This method is thread-safe and can be called at any time.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.Lock()
	isRunning := ms.cancel != nil
	activeBuckets := len(ms.buckets)
	ms.mu.Unlock()

	return MemoryStoreStats{
		BucketsCreated: ms.bucketsCreated.Load(),
		BucketsSwept:   ms.bucketsSwept.Load(),
		ActiveBuckets:  activeBuckets,
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the memory store is operational.
// Returns nil if healthy, suitable for use in health check endpoints.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	if !ms.Stats().IsRunning {
		return fmt.Errorf("sweep is not running")
	}
	return nil
}
