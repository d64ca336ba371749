package httpmw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/signalbrew/server/internal/middleware"
)

// RESTRateLimit rate-limits REST routes per client IP using a sliding
// window, grounded in the go-chi/httprate library already present in
// the example pack's chi-based services.
func RESTRateLimit(rpm int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(rpm, time.Minute)
}

// WSUpgradeLimiter gates WebSocket upgrade attempts per client IP. It
// reuses the teacher's fixed-window Limiter rather than httprate, since
// an upgrade attempt is a one-shot check before the handshake completes,
// not a middleware chain around a normal request/response.
type WSUpgradeLimiter struct {
	limiter *middleware.Limiter
	next    http.Handler
}

func NewWSUpgradeLimiter(rpm int, next http.Handler) *WSUpgradeLimiter {
	return &WSUpgradeLimiter{limiter: middleware.New(rpm), next: next}
}

func (l *WSUpgradeLimiter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !l.limiter.AllowWS(r) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	l.next.ServeHTTP(w, r)
}
