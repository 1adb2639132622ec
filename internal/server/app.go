// Package server assembles the HTTP application from configuration and
// runs it.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/config"
	"github.com/arunakai/care-home-saas/internal/db"
	"github.com/arunakai/care-home-saas/internal/handlers"
	"github.com/arunakai/care-home-saas/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// App is a fully wired service.
type App struct {
	Handler http.Handler
	Users   store.UserRepository
	DB      *sqlx.DB // nil for the memory driver
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Build opens the configured store, migrates and seeds it as needed and
// wires the handlers.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	cookies := auth.NewCookieManager(cfg.Auth.CookieName, cfg.Production, tokens.TTL())
	guard := auth.NewGuard(cookies, tokens)

	if cfg.Auth.UsesPlaceholderSecret() {
		logger.Warn().Msg("JWT_SECRET is not set; session tokens are signed with the public placeholder secret")
	}

	app := &App{}
	var pinger handlers.Pinger
	seed := cfg.Store.SeedDemoUsers

	switch cfg.Store.Driver {
	case config.DriverMemory:
		app.Users = store.NewMemoryUserRepository()
		seed = true
	default:
		conn, err := db.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		app.DB = conn
		app.Users = store.NewSQLUserRepository(conn)
		pinger = conn
	}

	if seed {
		n, err := store.SeedDemoUsers(ctx, app.Users, hasher, logger)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("seeding demo users: %w", err)
		}
		logger.Info().Int("created", n).Msg("demo users ready")
	}

	h := handlers.NewHandler(app.Users, hasher, tokens, cookies, pinger)
	app.Handler = NewRouter(logger, guard, h)

	logger.Info().
		Str("store", cfg.Store.Driver).
		Dur("token_ttl", tokens.TTL()).
		Bool("secure_cookies", cfg.Production).
		Msg("application wired")
	return app, nil
}
