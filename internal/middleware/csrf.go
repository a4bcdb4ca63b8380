package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/noisyneuron/noisyneuron/internal/auth"
)

// CSRF token transport names. The cookie is readable by scripts so API
// clients can echo it in the header.
const (
	CSRFCookieName = "csrftoken"
	CSRFFormField  = "csrfmiddlewaretoken"
	CSRFHeader     = "X-CSRFToken"
)

// csrfCookieMaxAge is one year.
const csrfCookieMaxAge = 365 * 24 * 60 * 60

const csrfTokenKey contextKey = "csrf_token"

// CSRFConfig holds configuration for double-submit CSRF protection.
type CSRFConfig struct {
	Logger *slog.Logger
	Secure bool
	// OnFailure renders the rejection. Defaults to a plain 403.
	OnFailure func(w http.ResponseWriter, r *http.Request)
}

// CSRF issues a per-browser token cookie and checks that unsafe requests
// echo it back in the form or header.
type CSRF struct {
	logger    *slog.Logger
	secure    bool
	onFailure func(w http.ResponseWriter, r *http.Request)
}

// NewCSRF creates the CSRF middleware pair.
func NewCSRF(cfg CSRFConfig) *CSRF {
	onFailure := cfg.OnFailure
	if onFailure == nil {
		onFailure = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "CSRF verification failed.", http.StatusForbidden)
		}
	}
	return &CSRF{logger: cfg.Logger, secure: cfg.Secure, onFailure: onFailure}
}

// Issue makes the request's CSRF token available to templates, setting the
// cookie when the browser has none.
func (c *CSRF) Issue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := csrfCookie(r)
		if token == "" {
			var err error
			token, err = auth.NewSessionToken()
			if err != nil {
				c.logger.Error("csrf token generation failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   csrfCookieMaxAge,
				Secure:   c.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey, token)))
	})
}

// Verify rejects POST, PUT, PATCH and DELETE requests whose form field or
// header does not match the CSRF cookie.
func (c *CSRF) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		cookie := csrfCookie(r)
		submitted := r.Header.Get(CSRFHeader)
		if submitted == "" {
			submitted = r.PostFormValue(CSRFFormField)
		}

		if cookie == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(submitted)) != 1 {
			c.logger.Warn("csrf verification failed",
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.Bool("cookie_present", cookie != ""),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			c.onFailure(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token Issue attached to the request.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey).(string)
	return token
}

// csrfCookie returns the browser's token, or "" when absent or malformed.
func csrfCookie(r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || !validCSRFToken(cookie.Value) {
		return ""
	}
	return cookie.Value
}

// validCSRFToken accepts the base64url shape NewSessionToken produces.
func validCSRFToken(token string) bool {
	if len(token) < 32 || len(token) > 64 {
		return false
	}
	for _, c := range token {
		if !(c == '-' || c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}
