// Package middleware provides HTTP middleware for the trading service.
package middleware

import (
	"net/http"
)

// SecurityHeaders adds security-related HTTP headers to responses.
// The service only speaks JSON, so the policy can be strict.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent embedding in iframes
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information sent with requests
		w.Header().Set("Referrer-Policy", "no-referrer")

		// No browser sources at all for an API
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Responses carry account balances and order state;
		// keep them out of shared caches.
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
