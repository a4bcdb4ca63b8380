package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/noisyneuron/noisyneuron/internal/cache"
)

// AuthLimiter consumes login/signup attempts per client IP. *cache.Cache satisfies it.
type AuthLimiter interface {
	CheckAuthRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter AuthLimiter
	Enabled bool
	// Attempts per minute refilled into each IP's bucket.
	RatePerMinute int
	Burst         int
	// OnLimited renders the rejection. Defaults to a plain 429.
	OnLimited func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)
}

// RateLimitAuth returns middleware that throttles POSTs to the login and
// signup forms per client IP. Other methods pass through.
func RateLimitAuth(cfg RateLimitConfig) func(http.Handler) http.Handler {
	onLimited := cfg.OnLimited
	if onLimited == nil {
		onLimited = writeRateLimitError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			result, err := cfg.Limiter.CheckAuthRateLimit(r.Context(), ip, cfg.RatePerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("auth rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("type", "auth"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				onLimited(w, r, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitError writes a bare 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
	http.Error(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
}

// getClientIP returns the request's remote host. chi's RealIP middleware
// rewrites RemoteAddr from X-Forwarded-For/X-Real-IP upstream of this.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
