package httpx

import (
	"net/http"
	"strings"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so that mws run in the order given: the first middleware
// sees the request first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme match is case-insensitive per RFC 6750.
func BearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return "", false
	}

	token := strings.TrimSpace(authz[len("Bearer "):])
	if token == "" {
		return "", false
	}
	return token, true
}

// HasPathPrefix reports whether path equals or lives under one of prefixes.
// A prefix ending in "/" matches any subtree.
func HasPathPrefix(path string, prefixes ...string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if path == p || path == strings.TrimSuffix(p, "/") {
			return true
		}
		if strings.HasSuffix(p, "/") && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
