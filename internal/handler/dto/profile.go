// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/noisyneuron/noisyneuron/internal/model"
)

// ProfileResponse is a profile as returned by the JSON endpoints.
type ProfileResponse struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"display_name"`
	Bio                string    `json:"bio"`
	Location           string    `json:"location"`
	Website            string    `json:"website"`
	AvatarURL          string    `json:"avatar_url"`
	SkillLevel         string    `json:"skill_level"`
	FavoriteGenres     []string  `json:"favorite_genres"`
	EmailNotifications bool      `json:"email_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpdateProfileResponse wraps a successful update.
type UpdateProfileResponse struct {
	Success bool            `json:"success"`
	Data    ProfileResponse `json:"data"`
}

// ValidationErrorResponse lists field errors for a rejected update.
type ValidationErrorResponse struct {
	Success bool                `json:"success"`
	Errors  map[string][]string `json:"errors"`
}

// ErrorResponse represents a non-field error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToProfileResponse converts a profile and its owner's email to the response shape.
func ToProfileResponse(p *model.Profile, email string) ProfileResponse {
	genres := p.FavoriteGenres
	if genres == nil {
		genres = []string{}
	}

	return ProfileResponse{
		ID:                 p.ID,
		UserID:             p.UserID,
		Email:              email,
		DisplayName:        p.DisplayName,
		Bio:                p.Bio,
		Location:           p.Location,
		Website:            p.Website,
		AvatarURL:          p.AvatarURL,
		SkillLevel:         string(p.SkillLevel),
		FavoriteGenres:     genres,
		EmailNotifications: p.EmailNotifications,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
