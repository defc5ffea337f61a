package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIdentity is used when a request carries no usable origin.
const UnknownIdentity = "unknown"

// ClientIdentity derives the rate-limit key for r: the first X-Forwarded-For
// entry, then X-Real-IP, then the host part of RemoteAddr.
func ClientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return UnknownIdentity
}
