// Package config loads service configuration: built-in defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arunakai/care-home-saas/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// PlaceholderSecret is used when no signing secret is configured. Tokens
// signed with it are forgeable by anyone who has read this file.
const PlaceholderSecret = "your-secret-key"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	Production bool          `yaml:"production"`
	Server     ServerConfig  `yaml:"server"`
	Auth       AuthConfig    `yaml:"auth"`
	Store      StoreConfig   `yaml:"store"`
	Logging    LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// AuthConfig contains session token and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	CookieName string        `yaml:"cookie_name"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// UsesPlaceholderSecret reports whether tokens would be signed with the
// built-in placeholder.
func (a AuthConfig) UsesPlaceholderSecret() bool {
	return a.JWTSecret == PlaceholderSecret
}

// StoreConfig selects and tunes the credential store backend.
type StoreConfig struct {
	Driver        string        `yaml:"driver"`
	DatabaseURL   string        `yaml:"database_url"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MaxOpen       int           `yaml:"max_open"`
	MaxIdle       int           `yaml:"max_idle"`
	MaxLifetime   time.Duration `yaml:"max_lifetime"`
	SeedDemoUsers bool          `yaml:"seed_demo_users"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg, os.Getenv); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            4000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:  PlaceholderSecret,
			TokenTTL:   24 * time.Hour,
			CookieName: "auth_token",
			BcryptCost: 10,
		},
		Store: StoreConfig{
			Driver:      DriverMemory,
			SQLitePath:  "./data/carehome.db",
			MaxOpen:     25,
			MaxIdle:     25,
			MaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// applyEnvOverrides applies environment variable overrides. getenv is a
// seam for tests.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if v := getenv("APP_ENV"); v != "" {
		cfg.Production = strings.EqualFold(v, "production")
	} else if v := getenv("NODE_ENV"); v != "" {
		cfg.Production = strings.EqualFold(v, "production")
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		ttl, err := utils.ParseTTL(v, cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.Auth.BcryptCost = cost
	}

	if v := getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Store.DatabaseURL = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := getenv("DB_MAX_OPEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_MAX_OPEN: %w", err)
		}
		cfg.Store.MaxOpen = n
	}
	if v := getenv("DB_MAX_IDLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_MAX_IDLE: %w", err)
		}
		cfg.Store.MaxIdle = n
	}
	if v := getenv("DB_MAX_LIFETIME"); v != "" {
		secs, err := strconv.Atoi(v) // seconds
		if err != nil {
			return fmt.Errorf("DB_MAX_LIFETIME: %w", err)
		}
		cfg.Store.MaxLifetime = time.Duration(secs) * time.Second
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is empty"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be within [%d, %d], got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	return errors.Join(errs...)
}
