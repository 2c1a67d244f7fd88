package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
)

// RateLimitMiddleware bounds how fast submission endpoints accept work. The
// engine itself sheds load by evicting queue heads, so the limiter's job is
// to push back on callers before the queues start churning.
type RateLimitMiddleware struct {
	limiter *rate.Limiter
}

// NewRateLimitMiddleware creates a rate limiter allowing perSecond requests
// with the given burst. A perSecond of zero (or less) disables limiting.
func NewRateLimitMiddleware(perSecond float64, burst int) *RateLimitMiddleware {
	if perSecond <= 0 {
		return &RateLimitMiddleware{}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitMiddleware{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Limit rejects requests over the configured rate with 429 Too Many Requests.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow() {
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				"Too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
