package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript runs the whole check-then-admit unit server-side so it stays
// atomic across application instances sharing one Redis.
//
// KEYS[1] bucket key
// ARGV[1] limit, ARGV[2] remember ms, ARGV[3] punishment ms,
// ARGV[4] strict (0/1), ARGV[5] now ms
// Returns {limited, count, windowEnd ms}.
var takeScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local remember = tonumber(ARGV[2])
local punishment = tonumber(ARGV[3])
local strict = tonumber(ARGV[4])
local now = tonumber(ARGV[5])

local count = tonumber(redis.call('HGET', key, 'count') or '-1')
local windowEnd
if count < 0 then
  count = 0
  windowEnd = now + remember
  redis.call('HSET', key, 'count', 0, 'windowEnd', windowEnd, 'limited', 0)
else
  windowEnd = tonumber(redis.call('HGET', key, 'windowEnd'))
end

if count >= limit then
  local limited = tonumber(redis.call('HGET', key, 'limited') or '0')
  if limited == 1 then
    if strict == 1 then
      windowEnd = now + punishment
      redis.call('HSET', key, 'windowEnd', windowEnd)
    end
  else
    local extend = punishment
    if remember > extend then extend = remember end
    windowEnd = now + extend
    redis.call('HSET', key, 'limited', 1, 'windowEnd', windowEnd)
  end
  redis.call('PEXPIREAT', key, windowEnd)
  return {1, count, windowEnd}
end

count = count + 1
redis.call('HSET', key, 'count', count)
redis.call('PEXPIREAT', key, windowEnd)
return {0, count, windowEnd}
`)

// RedisStore implements Store on Redis. Bucket expiry rides on per-key TTLs
// (PEXPIREAT windowEnd), so Redis itself performs the sweep.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces every bucket key (default "ratelimit:").
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed bucket store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil redis client", ErrInvalidConfig)
	}
	rs := &RedisStore{client: client, prefix: "ratelimit:"}
	for _, opt := range opts {
		opt(rs)
	}
	return rs, nil
}

// Take implements Store.
func (rs *RedisStore) Take(ctx context.Context, clientKey, routeKey string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	raw, err := takeScript.Run(ctx, rs.client,
		[]string{rs.key(clientKey, routeKey)},
		cfg.Limit,
		cfg.Remember.Milliseconds(),
		cfg.Punishment.Milliseconds(),
		boolArg(cfg.Strict),
		now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("%w: unexpected script reply", ErrStoreUnavailable)
	}

	limited := raw[0] == 1
	count := int(raw[1])
	if !limited {
		count++ // script admitted this request
	}

	return &Result{
		Limited:   limited,
		Limit:     cfg.Limit,
		Remaining: max(0, cfg.Limit-count),
		ResetAt:   time.UnixMilli(raw[2]),
	}, nil
}

// Peek implements Store without consuming capacity.
func (rs *RedisStore) Peek(ctx context.Context, clientKey, routeKey string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vals, err := rs.client.HMGet(ctx, rs.key(clientKey, routeKey), "count", "windowEnd", "limited").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if vals[0] == nil {
		return &Result{Limit: cfg.Limit, Remaining: cfg.Limit}, nil
	}

	count := parseInt(vals[0])
	return &Result{
		Limited:   parseInt(vals[2]) == 1 && count >= int64(cfg.Limit),
		Limit:     cfg.Limit,
		Remaining: max(0, cfg.Limit-int(count)),
		ResetAt:   time.UnixMilli(parseInt(vals[1])),
	}, nil
}

// Reset implements Store.
func (rs *RedisStore) Reset(ctx context.Context, clientKey, routeKey string) error {
	if err := rs.client.Del(ctx, rs.key(clientKey, routeKey)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Healthcheck validates Redis connectivity.
func (rs *RedisStore) Healthcheck(ctx context.Context) error {
	if err := rs.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (rs *RedisStore) key(clientKey, routeKey string) string {
	return rs.prefix + bucketKey(clientKey, routeKey)
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseInt(v any) int64 {
	switch n := v.(type) {
	case string:
		var out int64
		_, _ = fmt.Sscan(n, &out)
		return out
	case int64:
		return n
	default:
		return 0
	}
}
