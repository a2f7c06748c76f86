package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"net/http"
	"net/url"
	"strings"
)

// corsPolicy answers cross-origin requests for the configured origins.
// Browser builds hosted elsewhere fetch the database asset and the JSON
// API through it.
type corsPolicy struct {
	origins []string
}

func newCORSPolicy(origins []string) *corsPolicy {
	return &corsPolicy{origins: origins}
}

func (p *corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && p.allows(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, Range")
			h.Set("Access-Control-Expose-Headers", "Content-Length, ETag, Retry-After")
			h.Set("Access-Control-Max-Age", "86400") // 24 hours
			h.Add("Vary", "Origin")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allows checks if the given origin matches any allowed pattern.
func (p *corsPolicy) allows(origin string) bool {
	for _, pattern := range p.origins {
		if matchOrigin(origin, pattern) {
			return true
		}
	}
	return false
}

// matchOrigin checks if an origin matches a pattern. Patterns are an exact
// origin, "*" for any origin, or "*.example.com" for any subdomain.
func matchOrigin(origin, pattern string) bool {
	if pattern == "*" || origin == pattern {
		return true
	}

	suffix, ok := strings.CutPrefix(pattern, "*")
	if !ok || !strings.HasPrefix(suffix, ".") {
		return false
	}

	// "*.example.com" matches "sub.example.com" but not "example.com"
	host := extractHost(origin)
	return strings.HasSuffix(host, suffix) && len(host) > len(suffix)
}

// extractHost extracts the host from an origin.
// Example: "https://example.com:8080" returns "example.com".
func extractHost(origin string) string {
	if !strings.Contains(origin, "://") {
		origin = "//" + origin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
