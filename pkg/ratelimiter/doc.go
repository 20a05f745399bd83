// Package ratelimiter provides sliding-window rate limiting with punitive
// backoff and pluggable storage backends.
//
// # Algorithm
//
// Each (client, route) pair owns one bucket with a request count and a window
// [windowStart, windowEnd]. Checking and admitting a request is a single
// atomic operation:
//
//  1. A missing bucket is created with count=0 and windowEnd=now+remember.
//  2. If count has reached the limit the bucket becomes limited and the window
//     extends to now+max(punishment, remember). In strict mode, further
//     requests while limited keep re-arming windowEnd=now+punishment.
//  3. Otherwise the request is admitted and the count incremented.
//
// Capacity recovers only when an expired bucket is evicted whole: a periodic
// sweep drops every bucket whose windowEnd has passed. There is no per-token
// decay or refill.
//
// # Backends
//
// MemoryStore keeps buckets in a mutex-guarded map with a background sweep
// goroutine (Start/Stop/Run lifecycle). RedisStore executes the same
// algorithm inside a Lua script so the check-then-admit unit stays atomic
// across server instances, with per-key TTLs standing in for the sweep.
package ratelimiter
