package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const userColumns = `id, email, password_hash, first_name, last_name, role, facility_id, created_at`

// SQLUserRepository stores users in a SQL database through sqlx. Queries
// are written with ? placeholders and rebound for the driver in use.
type SQLUserRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLUserRepository(db *sqlx.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db, now: time.Now}
}

func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *SQLUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *SQLUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := normaliseRole(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`), email)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Create relies on the UNIQUE constraint on email, so a concurrent
// duplicate insert surfaces as ErrEmailTaken.
func (r *SQLUserRepository) Create(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO users (email, password_hash, first_name, last_name, role, facility_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowxContext(ctx, query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.FacilityID, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLUserRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	for _, u := range users {
		if err := normaliseRole(u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// normaliseRole maps legacy lower-case roles written by older clients onto
// the canonical set.
func normaliseRole(u *models.User) error {
	role, err := models.ParseLegacyRole(string(u.Role))
	if err != nil {
		return fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Role = role
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
