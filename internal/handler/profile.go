package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/noisyneuron/noisyneuron/internal/auth"
	"github.com/noisyneuron/noisyneuron/internal/model"
	"github.com/noisyneuron/noisyneuron/internal/service"
	"github.com/noisyneuron/noisyneuron/internal/view"
)

// Dashboard renders project statistics; the profile is shown only if it exists.
// GET /accounts/dashboard/, GET /dashboard/
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	data, err := h.accounts.Dashboard(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, view.PageDashboard, &view.Page{
		Title:   "Dashboard",
		Profile: data.Profile,
		Stats:   data.Stats,
	})
}

// Profile renders the caller's profile, creating it on first visit.
// GET /accounts/profile/
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	data, err := h.accounts.Profile(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, view.PageProfile, &view.Page{
		Title:   "Profile",
		Profile: data.Profile,
		Stats:   data.Stats,
	})
}

// ProfileEditForm renders the edit form populated from the profile.
// GET /accounts/profile/edit/
func (h *Handler) ProfileEditForm(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	profile, err := h.accounts.EnsureProfile(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, view.PageProfileEdit, &view.Page{
		Title:       "Edit profile",
		Profile:     profile,
		Form:        profileFormValues(profile),
		SkillLevels: model.ValidSkillLevels,
	})
}

// ProfileEdit saves the full edit form and redirects to the profile.
// POST /accounts/profile/edit/
func (h *Handler) ProfileEdit(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderEditErrors(w, r, nil, map[string][]string{"__all__": {"Invalid form submission."}})
		return
	}

	upd, verr := service.ProfileUpdateFromForm(r.PostForm, false)
	if verr.HasErrors() {
		h.renderEditErrors(w, r, r.PostForm, verr.Fields)
		return
	}

	if _, err := h.accounts.EditProfile(r.Context(), user.ID, upd); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.renderEditErrors(w, r, r.PostForm, verr.Fields)
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.redirectWithFlash(w, r, auth.SessionFromContext(r.Context()), model.FlashSuccess, MsgProfileUpdated, PathProfile)
}

func (h *Handler) renderEditErrors(w http.ResponseWriter, r *http.Request, submitted map[string][]string, errs map[string][]string) {
	form := make(map[string]string, len(submitted))
	for key, values := range submitted {
		form[key] = strings.Join(values, ", ")
	}

	h.render(w, r, http.StatusBadRequest, view.PageProfileEdit, &view.Page{
		Title:       "Edit profile",
		Form:        form,
		Errors:      errs,
		SkillLevels: model.ValidSkillLevels,
	})
}

func profileFormValues(p *model.Profile) map[string]string {
	return map[string]string{
		"display_name":        p.DisplayName,
		"bio":                 p.Bio,
		"location":            p.Location,
		"website":             p.Website,
		"avatar_url":          p.AvatarURL,
		"skill_level":         string(p.SkillLevel),
		"favorite_genres":     strings.Join(p.FavoriteGenres, ", "),
		"email_notifications": strconv.FormatBool(p.EmailNotifications),
	}
}
