// Package httputil holds small request helpers shared by the API and
// stream handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address used for per-IP stream accounting.
//
// With trustProxy set, forwarding headers from a fronting reverse proxy are
// consulted first: the leftmost X-Forwarded-For entry that parses as an IP
// address, then X-Real-IP. Values that do not parse are ignored rather than
// returned, so a client sending garbage headers through the proxy cannot
// mint itself a fresh limiter bucket. Without trustProxy the headers are
// ignored entirely and only RemoteAddr counts.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. requests built by hand in tests.
		return r.RemoteAddr
	}
	return host
}
