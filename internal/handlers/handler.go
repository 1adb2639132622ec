package handlers

import (
	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/store"
)

type Handler struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Health *HealthHandler
}

// NewHandler wires every route handler to the same store and session
// primitives. db may be nil when the in-memory store is used.
func NewHandler(users store.UserRepository, hasher auth.Hasher, tokens *auth.TokenIssuer, cookies *auth.CookieManager, db Pinger) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(users, hasher, tokens, cookies),
		Users:  NewUserHandler(users),
		Health: NewHealthHandler(db),
	}
}
