package api

import (
	"net"
	"net/http"
	"strings"
)

// clientIP identifies the client for rate limiting. Proxy headers take
// precedence over the connection address: the first entry of
// X-Forwarded-For, then X-Real-IP, then the peer address itself.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
