package model

import (
	"slices"
	"time"
)

// SkillLevel describes how experienced a musician considers themselves.
type SkillLevel string

// Skill levels.
const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillProfessional SkillLevel = "professional"
)

// ValidSkillLevels contains all accepted skill levels, in display order.
var ValidSkillLevels = []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced, SkillProfessional}

// IsValid reports whether the skill level is one of ValidSkillLevels.
func (s SkillLevel) IsValid() bool {
	return slices.Contains(ValidSkillLevels, s)
}

// Profile is the user-editable extension of a User.
// There is at most one Profile per User.
type Profile struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	DisplayName        string     `json:"display_name"`
	Bio                string     `json:"bio"`
	Location           string     `json:"location"`
	Website            string     `json:"website"`
	AvatarURL          string     `json:"avatar_url"`
	SkillLevel         SkillLevel `json:"skill_level"`
	FavoriteGenres     []string   `json:"favorite_genres"`
	EmailNotifications bool       `json:"email_notifications"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewProfile returns an empty profile for the user with default settings.
func NewProfile(id, userID string, now time.Time) *Profile {
	return &Profile{
		ID:                 id,
		UserID:             userID,
		SkillLevel:         SkillBeginner,
		FavoriteGenres:     []string{},
		EmailNotifications: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
