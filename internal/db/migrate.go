package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema migrations for the database's driver.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dialect, dir, err := migrationSet(db.DriverName())
	if err != nil {
		return err
	}

	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("db: migrations for %s: %w", dialect, err)
	}

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("db: goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

func migrationSet(driver string) (dialect, dir string, err error) {
	switch driver {
	case "pgx", "postgres":
		return "pgx", "migrations/postgres", nil
	case "sqlite3":
		return "sqlite3", "migrations/sqlite", nil
	}
	return "", "", fmt.Errorf("db: no migrations for driver %q", driver)
}
