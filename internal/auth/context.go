package auth

import (
	"context"

	"github.com/noisyneuron/noisyneuron/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	userContextKey    contextKey = "user"
)

// ContextWithSession adds the request's session to the context.
func ContextWithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext retrieves the session from the context.
// Returns nil if the session middleware has not run.
func SessionFromContext(ctx context.Context) *model.Session {
	s, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return s
}

// ContextWithUser adds the authenticated user to the context.
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext retrieves the authenticated user from the context.
// Returns nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.User {
	u, ok := ctx.Value(userContextKey).(*model.User)
	if !ok {
		return nil
	}
	return u
}

// MustUserFromContext retrieves the authenticated user from the context.
// Panics if not present (use only behind RequireLogin).
func MustUserFromContext(ctx context.Context) *model.User {
	u := UserFromContext(ctx)
	if u == nil {
		panic("user not found in context - ensure login middleware is applied")
	}
	return u
}

// UserIDFromContext returns the authenticated user's ID or "" if anonymous.
func UserIDFromContext(ctx context.Context) string {
	u := UserFromContext(ctx)
	if u == nil {
		return ""
	}
	return u.ID
}
