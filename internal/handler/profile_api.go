package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/noisyneuron/noisyneuron/internal/auth"
	"github.com/noisyneuron/noisyneuron/internal/handler/dto"
	"github.com/noisyneuron/noisyneuron/internal/middleware"
	"github.com/noisyneuron/noisyneuron/internal/service"
)

// APIGetProfile returns the caller's profile. It never creates one.
// GET /accounts/api/profile/
func (h *Handler) APIGetProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	profile, err := h.accounts.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.handleAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile, user.Email))
}

// APIUpdateProfile applies a partial update. Only submitted fields are
// validated and written; an invalid submission changes nothing.
// POST /accounts/api/profile/update/
func (h *Handler) APIUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	values, err := readSubmission(r)
	if err != nil {
		h.logger.Debug("profile_update_rejected", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		writeJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{
			Errors: map[string][]string{"non_field_errors": {"Invalid request body."}},
		})
		return
	}

	upd, verr := service.ProfileUpdateFromForm(values, true)
	if verr.HasErrors() {
		writeJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{Errors: verr.Fields})
		return
	}

	profile, err := h.accounts.PatchProfile(r.Context(), user.ID, upd)
	if err != nil {
		h.handleAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UpdateProfileResponse{
		Success: true,
		Data:    dto.ToProfileResponse(profile, user.Email),
	})
}

func (h *Handler) handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{Errors: verr.Fields})
	case errors.Is(err, service.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Profile not found"})
	default:
		h.logger.Error("internal_error", "error", err, "path", r.URL.Path, "request_id", middleware.GetRequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "An internal error occurred"})
	}
}

// readSubmission reads form-encoded fields, or a flat JSON object of strings,
// booleans and string arrays.
func readSubmission(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return r.PostForm, nil
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	values := make(url.Values, len(body))
	for key, raw := range body {
		switch v := raw.(type) {
		case string:
			values.Set(key, v)
		case bool:
			values.Set(key, fmt.Sprint(v))
		case []any:
			list := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("field %q: list items must be strings", key)
				}
				list = append(list, s)
			}
			// keeps a one-element list from being split on commas
			if len(list) == 1 {
				list = append(list, "")
			}
			values[key] = list
		case nil:
			values.Set(key, "")
		default:
			return nil, fmt.Errorf("field %q: unsupported type %T", key, raw)
		}
	}

	return values, nil
}
