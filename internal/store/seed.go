package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/models"
	"github.com/rs/zerolog"
)

// DemoAccount is a well-known login used in development and demos.
type DemoAccount struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       models.Role
	FacilityID *int64
}

func facility(id int64) *int64 { return &id }

// DemoAccounts are the accounts every fresh development store starts with.
var DemoAccounts = []DemoAccount{
	{Email: "admin@carehome.com", Password: "admin123", FirstName: "Admin", LastName: "User", Role: models.RoleAdmin, FacilityID: facility(1)},
	{Email: "staff@carehome.com", Password: "staff123", FirstName: "Staff", LastName: "User", Role: models.RoleStaff, FacilityID: facility(1)},
	{Email: "superadmin@carehome.com", Password: "super123", FirstName: "Super", LastName: "Admin", Role: models.RoleSuperAdmin},
}

// SeedDemoUsers inserts DemoAccounts, skipping any email already present.
// It returns the number of accounts created.
func SeedDemoUsers(ctx context.Context, repo UserRepository, hasher auth.Hasher, logger zerolog.Logger) (int, error) {
	created := 0
	for _, acct := range DemoAccounts {
		exists, err := repo.ExistsByEmail(ctx, acct.Email)
		if err != nil {
			return created, fmt.Errorf("seeding %s: %w", acct.Email, err)
		}
		if exists {
			logger.Debug().Str("email", acct.Email).Msg("demo user already present")
			continue
		}

		hash, err := hasher.Hash(acct.Password)
		if err != nil {
			return created, fmt.Errorf("seeding %s: %w", acct.Email, err)
		}

		u := &models.User{
			Email:        acct.Email,
			PasswordHash: hash,
			FirstName:    acct.FirstName,
			LastName:     acct.LastName,
			Role:         acct.Role,
			FacilityID:   acct.FacilityID,
		}
		if err := repo.Create(ctx, u); err != nil {
			if errors.Is(err, ErrEmailTaken) {
				continue
			}
			return created, fmt.Errorf("seeding %s: %w", acct.Email, err)
		}
		created++
		logger.Info().Int64("user_id", u.ID).Str("email", u.Email).Str("role", u.Role.String()).Msg("seeded demo user")
	}
	return created, nil
}
