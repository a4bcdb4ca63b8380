package service

import (
	"net/url"
	"strings"

	"github.com/noisyneuron/noisyneuron/internal/model"
)

// SignupInput is the registration form.
type SignupInput struct {
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `form:"first_name" validate:"max=150"`
	LastName        string `form:"last_name" validate:"max=150"`
}

// SignupInputFromForm reads the signup form fields.
func SignupInputFromForm(values url.Values) SignupInput {
	return SignupInput{
		Email:           strings.TrimSpace(values.Get("email")),
		Password:        values.Get("password"),
		PasswordConfirm: values.Get("password_confirm"),
		FirstName:       strings.TrimSpace(values.Get("first_name")),
		LastName:        strings.TrimSpace(values.Get("last_name")),
	}
}

// profileFields is the validated shape of a profile's editable fields.
type profileFields struct {
	DisplayName        string   `form:"display_name" validate:"max=100"`
	Bio                string   `form:"bio" validate:"max=500"`
	Location           string   `form:"location" validate:"max=100"`
	Website            string   `form:"website" validate:"omitempty,max=200,weburl"`
	AvatarURL          string   `form:"avatar_url" validate:"omitempty,max=500,weburl"`
	SkillLevel         string   `form:"skill_level" validate:"required,oneof=beginner intermediate advanced professional"`
	FavoriteGenres     []string `form:"favorite_genres" validate:"max=10,dive,min=1,max=50"`
	EmailNotifications bool     `form:"email_notifications"`
}

// ProfileUpdate holds submitted profile fields. A nil field was not submitted
// and is left unchanged.
type ProfileUpdate struct {
	DisplayName        *string
	Bio                *string
	Location           *string
	Website            *string
	AvatarURL          *string
	SkillLevel         *string
	FavoriteGenres     []string
	GenresSet          bool
	EmailNotifications *bool
}

// ProfileUpdateFromForm parses form-encoded profile fields.
//
// With partial=false every editable field is taken from the form, and an
// absent email_notifications checkbox means false. With partial=true only the
// keys present in the form are applied. Unknown and read-only keys are ignored.
func ProfileUpdateFromForm(values url.Values, partial bool) (ProfileUpdate, *ValidationError) {
	var upd ProfileUpdate
	verr := &ValidationError{}

	str := func(key string) *string {
		if _, ok := values[key]; !ok && partial {
			return nil
		}
		v := strings.TrimSpace(values.Get(key))
		return &v
	}

	upd.DisplayName = str("display_name")
	upd.Bio = str("bio")
	upd.Location = str("location")
	upd.Website = str("website")
	upd.AvatarURL = str("avatar_url")
	upd.SkillLevel = str("skill_level")

	if raw, ok := values["favorite_genres"]; ok || !partial {
		upd.FavoriteGenres = parseGenres(raw)
		upd.GenresSet = true
	}

	if _, ok := values["email_notifications"]; ok {
		b, valid := parseBool(values.Get("email_notifications"))
		if !valid {
			verr.Add("email_notifications", "Must be a valid boolean.")
		} else {
			upd.EmailNotifications = &b
		}
	} else if !partial {
		f := false
		upd.EmailNotifications = &f
	}

	return upd, verr
}

// IsEmpty reports whether no field was submitted.
func (u ProfileUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.Location == nil &&
		u.Website == nil && u.AvatarURL == nil && u.SkillLevel == nil &&
		!u.GenresSet && u.EmailNotifications == nil
}

// submitted lists the profileFields names present in the update.
func (u ProfileUpdate) submitted() []string {
	var names []string
	for name, set := range map[string]bool{
		"DisplayName":        u.DisplayName != nil,
		"Bio":                u.Bio != nil,
		"Location":           u.Location != nil,
		"Website":            u.Website != nil,
		"AvatarURL":          u.AvatarURL != nil,
		"SkillLevel":         u.SkillLevel != nil,
		"FavoriteGenres":     u.GenresSet,
		"EmailNotifications": u.EmailNotifications != nil,
	} {
		if set {
			names = append(names, name)
		}
	}
	return names
}

// applyTo returns the profile's fields with the update merged in.
func (u ProfileUpdate) applyTo(p *model.Profile) profileFields {
	f := profileFields{
		DisplayName:        p.DisplayName,
		Bio:                p.Bio,
		Location:           p.Location,
		Website:            p.Website,
		AvatarURL:          p.AvatarURL,
		SkillLevel:         string(p.SkillLevel),
		FavoriteGenres:     p.FavoriteGenres,
		EmailNotifications: p.EmailNotifications,
	}

	if u.DisplayName != nil {
		f.DisplayName = *u.DisplayName
	}
	if u.Bio != nil {
		f.Bio = *u.Bio
	}
	if u.Location != nil {
		f.Location = *u.Location
	}
	if u.Website != nil {
		f.Website = *u.Website
	}
	if u.AvatarURL != nil {
		f.AvatarURL = *u.AvatarURL
	}
	if u.SkillLevel != nil {
		f.SkillLevel = *u.SkillLevel
	}
	if u.GenresSet {
		f.FavoriteGenres = u.FavoriteGenres
	}
	if u.EmailNotifications != nil {
		f.EmailNotifications = *u.EmailNotifications
	}

	return f
}

// writeTo copies validated fields onto the profile.
func (f profileFields) writeTo(p *model.Profile) {
	p.DisplayName = f.DisplayName
	p.Bio = f.Bio
	p.Location = f.Location
	p.Website = f.Website
	p.AvatarURL = f.AvatarURL
	p.SkillLevel = model.SkillLevel(f.SkillLevel)
	p.FavoriteGenres = f.FavoriteGenres
	p.EmailNotifications = f.EmailNotifications
}

// parseGenres accepts either repeated keys or one comma-separated value.
func parseGenres(raw []string) []string {
	if len(raw) == 1 {
		raw = strings.Split(raw[0], ",")
	}

	genres := make([]string, 0, len(raw))
	for _, g := range raw {
		g = strings.TrimSpace(g)
		if g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no", "":
		return false, true
	default:
		return false, false
	}
}
