package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/noisyneuron/noisyneuron/internal/config"
	"github.com/noisyneuron/noisyneuron/internal/handler"
	"github.com/noisyneuron/noisyneuron/internal/middleware"
)

type routerDeps struct {
	handler  *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	sessions *middleware.Sessions
	users    middleware.UserLoader
	limiter  middleware.AuthLimiter
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	h := d.handler
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	// Health checks and metrics carry no session
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/api/health/", d.health.Healthz)
	r.Get("/metrics", d.metrics.Metrics)

	authLimit := middleware.RateLimitAuth(middleware.RateLimitConfig{
		Logger:        logger,
		Limiter:       d.limiter,
		Enabled:       cfg.RateLimitAuthEnabled,
		RatePerMinute: cfg.RateLimitAuthPerMinute,
		Burst:         cfg.RateLimitAuthBurst,
		OnLimited:     h.AuthRateLimited,
	})
	requireLogin := middleware.RequireLogin(handler.PathLogin)
	csrf := middleware.NewCSRF(middleware.CSRFConfig{
		Logger:    logger,
		Secure:    cfg.SessionCookieSecure(),
		OnFailure: h.CSRFFailed,
	})

	// csrf.Verify runs after the rate limit and login gates so throttled
	// and anonymous requests keep their 429/303/401 responses.
	r.Group(func(r chi.Router) {
		r.Use(d.sessions.Load(d.users))
		r.Use(csrf.Issue)

		r.Get("/", h.Home)
		r.With(requireLogin).Get("/dashboard/", h.Dashboard)

		r.Route("/accounts", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimit)
				r.Use(csrf.Verify)
				r.Get("/signup/", h.SignupForm)
				r.Post("/signup/", h.Signup)
				r.Get("/login/", h.LoginForm)
				r.Post("/login/", h.Login)
			})
			r.Get("/logout/", h.Logout)
			r.With(csrf.Verify).Post("/logout/", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireLogin)
				r.Use(csrf.Verify)
				r.Get("/dashboard/", h.Dashboard)
				r.Get("/profile/", h.Profile)
				r.Get("/profile/edit/", h.ProfileEditForm)
				r.Post("/profile/edit/", h.ProfileEdit)
			})

			r.Route("/api", func(r chi.Router) {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins:   cfg.GetCORSAllowedOrigins(),
					AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
					AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.CSRFHeader},
					ExposedHeaders:   []string{"X-Request-ID"},
					AllowCredentials: true,
					MaxAge:           300,
				}))
				r.Use(middleware.RequireLoginJSON)
				r.Use(csrf.Verify)
				r.Get("/profile/", h.APIGetProfile)
				r.Post("/profile/update/", h.APIUpdateProfile)
			})
		})
	})

	return r
}
