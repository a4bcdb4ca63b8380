package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noisyneuron/noisyneuron/internal/cache"
)

type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	calls  int
	lastIP string
}

func (s *stubLimiter) CheckAuthRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	s.calls++
	s.lastIP = ip
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAuth(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		method     string
		result     *cache.RateLimitResult
		err        error
		wantStatus int
		wantCalls  int
	}{
		{"disabled", false, http.MethodPost, nil, nil, http.StatusOK, 0},
		{"GET passes through", true, http.MethodGet, nil, nil, http.StatusOK, 0},
		{"allowed", true, http.MethodPost, &cache.RateLimitResult{Allowed: true}, nil, http.StatusOK, 1},
		{"limited", true, http.MethodPost, &cache.RateLimitResult{Allowed: false, RetryAfter: 7 * time.Second}, nil, http.StatusTooManyRequests, 1},
		{"limiter error fails open", true, http.MethodPost, nil, errors.New("redis down"), http.StatusOK, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			limiter := &stubLimiter{result: tt.result, err: tt.err}
			mw := RateLimitAuth(RateLimitConfig{
				Logger:        discardLogger(),
				Limiter:       limiter,
				Enabled:       tt.enabled,
				RatePerMinute: 10,
				Burst:         5,
			})

			req := httptest.NewRequest(tt.method, "/accounts/login/", nil)
			req.RemoteAddr = "198.51.100.7:51234"
			rec := httptest.NewRecorder()

			mw(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if limiter.calls != tt.wantCalls {
				t.Errorf("limiter calls = %d, want %d", limiter.calls, tt.wantCalls)
			}
			if tt.wantCalls > 0 && limiter.lastIP != "198.51.100.7" {
				t.Errorf("limiter saw ip %q", limiter.lastIP)
			}
			if tt.wantStatus == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "7" {
				t.Errorf("Retry-After = %q, want 7", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRateLimitAuth_CustomRejection(t *testing.T) {
	limiter := &stubLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: time.Second}}
	var called bool

	mw := RateLimitAuth(RateLimitConfig{
		Logger:  discardLogger(),
		Limiter: limiter,
		Enabled: true,
		OnLimited: func(w http.ResponseWriter, _ *http.Request, retryAfter time.Duration) {
			called = true
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})

	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/signup/", nil))

	if !called {
		t.Error("expected custom rejection handler to run")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.0.2.1:1234"
	if got := getClientIP(req); got != "192.0.2.1" {
		t.Errorf("got %q", got)
	}

	req.RemoteAddr = "192.0.2.9"
	if got := getClientIP(req); got != "192.0.2.9" {
		t.Errorf("got %q", got)
	}
}
