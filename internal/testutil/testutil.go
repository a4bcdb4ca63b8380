// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/noisyneuron/noisyneuron/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730730

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAccounts removes all rows from the accounts tables.
// Migrations must already be applied.
func TruncateAccounts(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `TRUNCATE audio_projects, profiles, users CASCADE`); err != nil {
		return fmt.Errorf("truncate accounts tables: %w", err)
	}
	return nil
}

// InsertProject writes an audio project row directly, since accounts never
// creates projects itself.
func InsertProject(ctx context.Context, pool *pgxpool.Pool, p *model.Project) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO audio_projects (id, user_id, title, processing_status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.UserID, p.Title, string(p.ProcessingStatus), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: "hash-" + email,
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestProfile creates an empty profile for the user.
func NewTestProfile(t testing.TB, userID string) *model.Profile {
	t.Helper()
	return model.NewProfile(ulid.Make().String(), userID, time.Now().UTC().Truncate(time.Microsecond))
}

// NewTestProject creates a project owned by the user.
func NewTestProject(t testing.TB, userID string, status model.ProcessingStatus, createdAt time.Time) *model.Project {
	t.Helper()
	return &model.Project{
		ID:               ulid.Make().String(),
		UserID:           userID,
		Title:            "Project " + createdAt.Format(time.RFC3339Nano),
		ProcessingStatus: status,
		CreatedAt:        createdAt.UTC().Truncate(time.Microsecond),
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
