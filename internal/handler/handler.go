// Package handler provides HTTP request handlers.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/noisyneuron/noisyneuron/internal/auth"
	"github.com/noisyneuron/noisyneuron/internal/middleware"
	"github.com/noisyneuron/noisyneuron/internal/model"
	"github.com/noisyneuron/noisyneuron/internal/service"
	"github.com/noisyneuron/noisyneuron/internal/view"
)

// Paths the handlers redirect to.
const (
	PathHome        = "/"
	PathLogin       = "/accounts/login/"
	PathDashboard   = "/accounts/dashboard/"
	PathProfile     = "/accounts/profile/"
	PathProfileEdit = "/accounts/profile/edit/"
)

// Accounts is the account service as seen by the handlers.
// *service.AccountService satisfies it.
type Accounts interface {
	Signup(ctx context.Context, input service.SignupInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Logout(userID string)

	Profile(ctx context.Context, userID string) (*service.ProfilePage, error)
	Dashboard(ctx context.Context, userID string) (*service.ProfilePage, error)
	EnsureProfile(ctx context.Context, userID string) (*model.Profile, error)
	EditProfile(ctx context.Context, userID string, upd service.ProfileUpdate) (*model.Profile, error)

	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	PatchProfile(ctx context.Context, userID string, upd service.ProfileUpdate) (*model.Profile, error)
}

// Handler serves the HTML pages and the JSON profile endpoints.
type Handler struct {
	accounts Accounts
	sessions *middleware.Sessions
	views    *view.Renderer
	logger   *slog.Logger
}

// New creates a new Handler instance.
func New(accounts Accounts, sessions *middleware.Sessions, views *view.Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		sessions: sessions,
		views:    views,
		logger:   logger,
	}
}

// Home renders the landing page.
// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageIndex, &view.Page{})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "resource not found"})
}

// CSRFFailed rejects a forged or tokenless unsafe request with 403.
// JSON endpoints get a JSON body.
func (h *Handler) CSRFFailed(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/accounts/api/") {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "CSRF verification failed"})
		return
	}
	http.Error(w, "CSRF verification failed. Reload the page and try again.", http.StatusForbidden)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

// render writes a page, draining pending flashes from the session into it.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page *view.Page) {
	page.User = auth.UserFromContext(r.Context())
	page.CSRFToken = middleware.CSRFToken(r.Context())

	if session := auth.SessionFromContext(r.Context()); session != nil && len(session.Flashes) > 0 {
		page.Flashes = append(session.PopFlashes(), page.Flashes...)
		if err := h.sessions.Save(w, r, session); err != nil {
			h.logger.Error("session_save_failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		}
	}

	var buf bytes.Buffer
	if err := h.views.Render(&buf, name, page); err != nil {
		h.logger.Error("render_failed", "page", name, "error", err, "request_id", middleware.GetRequestID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirectWithFlash queues a flash on the session and redirects with 303.
func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, session *model.Session, level, message, target string) {
	if session != nil {
		session.AddFlash(level, message)
		if err := h.sessions.Save(w, r, session); err != nil {
			h.logger.Error("session_save_failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// serverError renders a generic failure and logs the cause.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("internal_error", "error", err, "path", r.URL.Path, "request_id", middleware.GetRequestID(r.Context()))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// safeNext returns target if it is a local absolute path, otherwise fallback.
func safeNext(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") ||
		strings.ContainsAny(target, "\r\n") {
		return fallback
	}
	return target
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
