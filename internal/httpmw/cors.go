// Package httpmw wires the cross-cutting HTTP concerns — CORS, per-IP
// rate limiting on REST routes, and WebSocket-upgrade gating — around the
// core signaling routes.
package httpmw

import (
	"net/http"

	mapset "github.com/deckarep/golang-set/v2"
)

// CORS restricts cross-origin requests to the configured allow-list.
// AllowedOrigins containing "*" disables the check entirely.
type CORS struct {
	allowAll bool
	allowed  mapset.Set[string]
}

func NewCORS(allowedOrigins []string) *CORS {
	c := &CORS{allowed: mapset.NewSet[string]()}
	for _, o := range allowedOrigins {
		if o == "*" {
			c.allowAll = true
			continue
		}
		c.allowed.Add(o)
	}
	return c
}

func (c *CORS) allows(origin string) bool {
	return c.allowAll || c.allowed.Contains(origin)
}

func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if !c.allows(origin) {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
