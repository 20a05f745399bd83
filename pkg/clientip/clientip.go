// Package clientip extracts real client IP addresses from HTTP requests.
//
// Proxy headers are checked in priority order (CF-Connecting-IP,
// X-Forwarded-For leftmost entry, then X-Real-IP) before falling back to the
// connection's RemoteAddr. All candidates are validated and normalized with
// net.ParseIP; malformed headers are skipped silently.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// headerPriority lists proxy headers from most to least trustworthy.
var headerPriority = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the best-effort client IP for the request. It never returns
// an empty string: when no header yields a valid IP, the RemoteAddr host (or
// the raw RemoteAddr) is returned.
func GetIP(r *http.Request) string {
	for _, header := range headerPriority {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		// X-Forwarded-For may carry "client, proxy1, proxy2"; the leftmost
		// entry is the original client.
		candidate := value
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			candidate = value[:idx]
		}
		if ip := normalize(candidate); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := normalize(host); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// normalize validates and canonicalizes an IP candidate. The unspecified
// addresses (0.0.0.0, ::) are rejected since they never identify a client.
func normalize(candidate string) string {
	ip := net.ParseIP(strings.TrimSpace(candidate))
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
