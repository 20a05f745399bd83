// Package logger provides slog attribute helpers with consistent keys so log
// output stays queryable across packages.
package logger

import (
	"log/slog"
	"time"
)

// Component tags a log line with the emitting subsystem.
func Component(name string) slog.Attr { return slog.String("component", name) }

// Event names the lifecycle event being logged.
func Event(name string) slog.Attr { return slog.String("event", name) }

// Method records the HTTP request method.
func Method(m string) slog.Attr { return slog.String("method", m) }

// Path records the HTTP request path.
func Path(p string) slog.Attr { return slog.String("path", p) }

// Query records the raw query string.
func Query(q string) slog.Attr { return slog.String("query", q) }

// RemoteAddr records the connection's remote address.
func RemoteAddr(addr string) slog.Attr { return slog.String("remote_addr", addr) }

// ClientIP records the resolved client IP.
func ClientIP(ip string) slog.Attr { return slog.String("client_ip", ip) }

// RequestID records the per-request correlation ID.
func RequestID(id string) slog.Attr { return slog.String("request_id", id) }

// StatusCode records the HTTP response status.
func StatusCode(code int) slog.Attr { return slog.Int("status_code", code) }

// BytesOut records the response body size.
func BytesOut(n int64) slog.Attr { return slog.Int64("bytes_out", n) }

// Duration records elapsed time under the "duration" key.
func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

// Latency records elapsed time under the "latency" key.
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }

// Error records a non-nil error; nil yields an empty attr that slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Group nests attrs under one key.
func Group(key string, attrs ...slog.Attr) slog.Attr {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return slog.Group(key, args...)
}
