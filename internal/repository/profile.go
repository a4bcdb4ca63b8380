package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/noisyneuron/noisyneuron/internal/model"
)

// Common errors for profile repository operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)

const profileColumns = `id, user_id, display_name, bio, location, website, avatar_url, skill_level, favorite_genres, email_notifications, created_at, updated_at`

// CreateProfile inserts a new profile.
// Returns ErrProfileExists if the user already has one.
func (r *Repository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	return createProfile(ctx, r.pool, profile)
}

func createProfile(ctx context.Context, q querier, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := q.Exec(ctx, query, profileArgs(profile)...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfileByUserID retrieves the profile owned by a user.
func (r *Repository) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by user ID: %w", err)
	}

	return profile, nil
}

// GetOrCreateProfile returns the user's profile, inserting the given default
// when none exists. The boolean reports whether a row was created.
// Concurrent callers converge on a single row through the unique user_id constraint.
func (r *Repository) GetOrCreateProfile(ctx context.Context, defaults *model.Profile) (*model.Profile, bool, error) {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, profileArgs(defaults)...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create profile: %w", err)
	}
	created := result.RowsAffected() == 1

	profile, err := r.GetProfileByUserID(ctx, defaults.UserID)
	if err != nil {
		return nil, false, err
	}

	return profile, created, nil
}

// UpdateProfile writes all editable fields of a profile.
func (r *Repository) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $2,
		    bio = $3,
		    location = $4,
		    website = $5,
		    avatar_url = $6,
		    skill_level = $7,
		    favorite_genres = $8,
		    email_notifications = $9,
		    updated_at = $10
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.DisplayName,
		profile.Bio,
		profile.Location,
		profile.Website,
		profile.AvatarURL,
		string(profile.SkillLevel),
		pq.Array(profile.FavoriteGenres),
		profile.EmailNotifications,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func profileArgs(p *model.Profile) []any {
	genres := p.FavoriteGenres
	if genres == nil {
		genres = []string{}
	}
	return []any{
		p.ID,
		p.UserID,
		p.DisplayName,
		p.Bio,
		p.Location,
		p.Website,
		p.AvatarURL,
		string(p.SkillLevel),
		pq.Array(genres),
		p.EmailNotifications,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var profile model.Profile
	var skill string
	var genres []string

	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.Bio,
		&profile.Location,
		&profile.Website,
		&profile.AvatarURL,
		&skill,
		pq.Array(&genres),
		&profile.EmailNotifications,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	profile.SkillLevel = model.SkillLevel(skill)
	if genres == nil {
		genres = []string{}
	}
	profile.FavoriteGenres = genres
	return &profile, nil
}
