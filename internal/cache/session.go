package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noisyneuron/noisyneuron/internal/auth"
	"github.com/noisyneuron/noisyneuron/internal/model"
)

const (
	// sessionPrefix is the Redis key prefix for sessions.
	sessionPrefix = "session:"
	// defaultSessionTTL matches a two-week login.
	defaultSessionTTL = 14 * 24 * time.Hour
)

// ErrSessionNotFound is returned when a token has no live session.
var ErrSessionNotFound = errors.New("session not found")

func sessionKey(token string) string {
	return sessionPrefix + auth.TokenKey(token)
}

// GetSession loads the session behind a cookie token.
func (c *Cache) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		// Corrupted entry - treat as missing
		return nil, ErrSessionNotFound
	}
	s.ID = token

	return &s, nil
}

// SaveSession stores the session and refreshes its TTL.
func (c *Cache) SaveSession(ctx context.Context, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, sessionKey(s.ID), data, c.sessionTTL).Err()
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	return c.client.Del(ctx, sessionKey(token)).Err()
}

// SessionTTL returns how long an idle session lives.
func (c *Cache) SessionTTL() time.Duration {
	return c.sessionTTL
}

// TouchSession extends a live session's TTL without rewriting it.
func (c *Cache) TouchSession(ctx context.Context, token string) error {
	return c.client.Expire(ctx, sessionKey(token), c.sessionTTL).Err()
}
