package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/noisyneuron/noisyneuron/internal/auth"
	"github.com/noisyneuron/noisyneuron/internal/middleware"
	"github.com/noisyneuron/noisyneuron/internal/model"
	"github.com/noisyneuron/noisyneuron/internal/service"
	"github.com/noisyneuron/noisyneuron/internal/view"
)

// Flash messages shown after account actions.
const (
	MsgSignupSuccess      = "Welcome to NoisyNeuron! Your account has been created successfully."
	MsgInvalidCredentials = "Invalid email or password."
	MsgLogoutSuccess      = "You have been logged out successfully."
	MsgProfileUpdated     = "Your profile has been updated successfully."
)

// SignupForm renders the registration form.
// GET /accounts/signup/
func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageSignup, &view.Page{Title: "Sign up"})
}

// Signup creates the account, logs the new user in and redirects to the profile.
// POST /accounts/signup/
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, view.PageSignup, &view.Page{
			Title:  "Sign up",
			Errors: map[string][]string{"__all__": {"Invalid form submission."}},
		})
		return
	}

	input := service.SignupInputFromForm(r.PostForm)

	user, err := h.accounts.Signup(r.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.render(w, r, http.StatusBadRequest, view.PageSignup, &view.Page{
				Title:  "Sign up",
				Form:   signupFormValues(input),
				Errors: verr.Fields,
			})
			return
		}
		h.serverError(w, r, err)
		return
	}

	session := auth.SessionFromContext(r.Context())
	if session == nil {
		session = &model.Session{}
	}
	session.AddFlash(model.FlashSuccess, MsgSignupSuccess)

	if _, err := h.sessions.Login(w, r, session, user.ID); err != nil {
		h.serverError(w, r, fmt.Errorf("establish session: %w", err))
		return
	}

	http.Redirect(w, r, PathProfile, http.StatusSeeOther)
}

// LoginForm renders the login form.
// GET /accounts/login/
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageLogin, &view.Page{
		Title: "Log in",
		Next:  safeNext(r.URL.Query().Get("next"), ""),
	})
}

// Login verifies credentials, rotates the session and redirects to next or the dashboard.
// POST /accounts/login/
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginFailed(w, r, "")
		return
	}

	email := r.PostForm.Get("email")

	user, err := h.accounts.Authenticate(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Info("login_failed", "request_id", middleware.GetRequestID(r.Context()))
			h.loginFailed(w, r, email)
			return
		}
		h.serverError(w, r, err)
		return
	}

	if _, err := h.sessions.Login(w, r, auth.SessionFromContext(r.Context()), user.ID); err != nil {
		h.serverError(w, r, fmt.Errorf("establish session: %w", err))
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)
	http.Redirect(w, r, safeNext(r.FormValue("next"), PathDashboard), http.StatusSeeOther)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, email string) {
	h.render(w, r, http.StatusUnauthorized, view.PageLogin, &view.Page{
		Title:   "Log in",
		Form:    map[string]string{"email": email},
		Next:    safeNext(r.FormValue("next"), ""),
		Flashes: []model.Flash{{Level: model.FlashError, Message: MsgInvalidCredentials}},
	})
}

// AuthRateLimited re-renders the login or signup form with 429.
// It is the rejection hook for the auth rate limiter.
func (h *Handler) AuthRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	page := &view.Page{
		Flashes: []model.Flash{{
			Level:   model.FlashError,
			Message: fmt.Sprintf("Too many attempts. Please try again in %d seconds.", int(retryAfter.Seconds())),
		}},
	}

	name := view.PageLogin
	page.Title = "Log in"
	if r.URL.Path == "/accounts/signup/" {
		name = view.PageSignup
		page.Title = "Sign up"
	}

	h.render(w, r, http.StatusTooManyRequests, name, page)
}

// Logout ends the session and redirects home. Safe to call without a session.
// GET|POST /accounts/logout/
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	h.accounts.Logout(userID)

	fresh := h.sessions.Logout(r, auth.SessionFromContext(r.Context()))
	if userID != "" {
		h.logger.Info("user_logged_out", "user_id", userID)
	}

	h.redirectWithFlash(w, r, fresh, model.FlashSuccess, MsgLogoutSuccess, PathHome)
}

// signupFormValues echoes the form back without the passwords.
func signupFormValues(in service.SignupInput) map[string]string {
	return map[string]string{
		"email":      in.Email,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}
}
