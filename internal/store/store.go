// Package store holds the credential store: user records keyed by email,
// behind an interface with an ephemeral in-memory implementation and a SQL
// one for Postgres or SQLite.
package store

import (
	"context"
	"errors"

	"github.com/arunakai/care-home-saas/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserRepository is the credential store. Records are only ever created;
// there is no update or delete.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create assigns u.ID (and CreatedAt if zero). It returns ErrEmailTaken
	// when the email is already present.
	Create(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]*models.User, error)
}
