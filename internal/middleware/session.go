package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/noisyneuron/noisyneuron/internal/auth"
	"github.com/noisyneuron/noisyneuron/internal/cache"
	"github.com/noisyneuron/noisyneuron/internal/model"
)

// DefaultSessionCookie is the session cookie name when none is configured.
const DefaultSessionCookie = "sessionid"

// SessionStore persists sessions by cookie token. *cache.Cache satisfies it.
type SessionStore interface {
	GetSession(ctx context.Context, token string) (*model.Session, error)
	SaveSession(ctx context.Context, s *model.Session) error
	DeleteSession(ctx context.Context, token string) error
	TouchSession(ctx context.Context, token string) error
}

// UserLoader resolves the user behind an authenticated session.
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// SessionConfig holds configuration for cookie sessions.
type SessionConfig struct {
	Logger     *slog.Logger
	Store      SessionStore
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Sessions loads, saves and rotates cookie-backed sessions.
type Sessions struct {
	store      SessionStore
	logger     *slog.Logger
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessions creates a session manager.
func NewSessions(cfg SessionConfig) *Sessions {
	name := cfg.CookieName
	if name == "" {
		name = DefaultSessionCookie
	}
	return &Sessions{
		store:      cfg.Store,
		logger:     cfg.Logger,
		cookieName: name,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}
}

// Load returns a middleware that attaches the request's session and, when the
// session is authenticated, its user to the request context. Requests without a
// live session get a fresh anonymous session that is only persisted if saved.
func (m *Sessions) Load(users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			session := m.lookup(ctx, r)

			if session.IsAuthenticated() {
				user, err := users.GetUser(ctx, session.UserID)
				switch {
				case err == nil:
					ctx = auth.ContextWithUser(ctx, user)
					annotateUser(ctx, user.ID)
					if err := m.store.TouchSession(ctx, session.ID); err != nil {
						m.logger.Warn("session touch failed",
							slog.String("error", err.Error()),
							slog.String("request_id", GetRequestID(ctx)),
						)
					}
				default:
					// user deleted or deactivated since login
					m.logger.Warn("session user unavailable",
						slog.String("user_id", session.UserID),
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(ctx)),
					)
					session = &model.Session{ID: session.ID, Flashes: session.Flashes, CreatedAt: session.CreatedAt}
				}
			}

			ctx = auth.ContextWithSession(ctx, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Sessions) lookup(ctx context.Context, r *http.Request) *model.Session {
	cookie, err := r.Cookie(m.cookieName)
	if err == nil && cookie.Value != "" {
		s, err := m.store.GetSession(ctx, cookie.Value)
		if err == nil {
			return s
		}
		if !errors.Is(err, cache.ErrSessionNotFound) {
			m.logger.Error("session lookup failed",
				slog.String("error", err.Error()),
				slog.String("request_id", GetRequestID(ctx)),
			)
		}
	}
	return &model.Session{CreatedAt: time.Now().UTC()}
}

// Save persists the session and sets its cookie. Must run before the
// response header is written.
func (m *Sessions) Save(w http.ResponseWriter, r *http.Request, s *model.Session) error {
	if s.ID == "" {
		token, err := auth.NewSessionToken()
		if err != nil {
			return err
		}
		s.ID = token
	}

	if err := m.store.SaveSession(r.Context(), s); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Login replaces the current session with a fresh authenticated one.
// Pending flashes carry over; the old token is invalidated.
func (m *Sessions) Login(w http.ResponseWriter, r *http.Request, old *model.Session, userID string) (*model.Session, error) {
	fresh := &model.Session{UserID: userID, CreatedAt: time.Now().UTC()}
	if old != nil {
		fresh.Flashes = old.Flashes
		m.discard(r.Context(), old)
	}

	if err := m.Save(w, r, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Logout invalidates the current session and returns a fresh anonymous one.
// The new session is not saved; callers add their flash and Save it.
func (m *Sessions) Logout(r *http.Request, old *model.Session) *model.Session {
	if old != nil {
		m.discard(r.Context(), old)
	}
	return &model.Session{CreatedAt: time.Now().UTC()}
}

func (m *Sessions) discard(ctx context.Context, s *model.Session) {
	if s.ID == "" {
		return
	}
	if err := m.store.DeleteSession(ctx, s.ID); err != nil {
		m.logger.Warn("session delete failed",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(ctx)),
		)
	}
}

// RequireLogin redirects anonymous visitors to the login page with a next parameter.
func RequireLogin(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.UserFromContext(r.Context()) == nil {
				target := loginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLoginJSON rejects anonymous API calls with 401.
func RequireLoginJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserFromContext(r.Context()) == nil {
			writeAuthError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeAuthError writes a 401 Unauthorized response.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
}
