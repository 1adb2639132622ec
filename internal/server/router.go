package server

import (
	"net/http"

	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/handlers"
	"github.com/arunakai/care-home-saas/internal/middleware"
	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// NewRouter mounts every route. The caller is resolved from the session
// cookie on each request; nothing about it is cached between requests.
func NewRouter(logger zerolog.Logger, guard *auth.Guard, h *handlers.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recover)
	r.Use(middleware.Authenticate(guard))

	r.Get("/healthz", h.Health.Health)

	// Public
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/register", h.Auth.Register)
		r.Post("/logout", h.Auth.Logout)
		r.Get("/user", h.Auth.CurrentUser)
	})

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

		r.Get("/users", h.Users.ListUsers)
		r.Get("/users/{id}", h.Users.GetUserByID)
	})

	return r
}
