package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	pkghttp "github.com/mopc-digital/expedientes/pkg/http"
)

// RateLimitConfig holds the per-IP throttle settings for the login endpoints.
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit throttles credential endpoints to 5 attempts per minute
// per IP. Account lockout handles slow, distributed guessing; this blunts the
// fast single-source kind.
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 5,
	}
}

// RateLimitByIP limits requests by client IP, honoring proxy headers the same
// way the audit trail does.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Too many requests, try again later")
		}),
	)
}
