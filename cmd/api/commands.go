package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arunakai/care-home-saas/internal/auth"
	"github.com/arunakai/care-home-saas/internal/config"
	"github.com/arunakai/care-home-saas/internal/db"
	"github.com/arunakai/care-home-saas/internal/logutil"
	"github.com/arunakai/care-home-saas/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	var configPath string
	return &cli.App{
		Name:  "carehome-api",
		Usage: "Care home SaaS authentication API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to a YAML config file",
				EnvVars:     []string{"CONFIG_FILE"},
				Destination: &configPath,
			},
		},
		Commands: []*cli.Command{
			serveCmd(&configPath),
			migrateCmd(&configPath),
			hashPasswordCmd(stdin, stdout),
		},
		Action: func(ctx *cli.Context) error {
			return runServe(ctx, configPath)
		},
	}
}

// setup loads configuration and installs the process logger.
func setup(ctx *cli.Context, configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := logutil.New(cfg.Logging, os.Stderr)
	log.Logger = logger
	ctx.Context = logutil.WithLogger(ctx.Context, logger)
	return cfg, logger, nil
}

func serveCmd(configPath *string) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API (default)",
		Action: func(ctx *cli.Context) error {
			return runServe(ctx, *configPath)
		},
	}
}

func runServe(ctx *cli.Context, configPath string) error {
	cfg, logger, err := setup(ctx, configPath)
	if err != nil {
		return err
	}

	app, err := server.Build(ctx.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return server.Serve(ctx.Context, cfg.Server, app.Handler)
}

func migrateCmd(configPath *string) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations for the configured SQL store",
		Action: func(ctx *cli.Context) error {
			cfg, logger, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			if cfg.Store.Driver == config.DriverMemory {
				return errors.New("store.driver is memory; nothing to migrate")
			}

			conn, err := db.Open(ctx.Context, cfg.Store)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(ctx.Context, conn); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.Store.Driver).Msg("migrations applied")
			return nil
		},
	}
}

func hashPasswordCmd(stdin io.Reader, stdout io.Writer) *cli.Command {
	var cost int
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Read a password from stdin and print its bcrypt hash",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "cost",
				Value:       auth.DefaultBcryptCost,
				Usage:       "bcrypt cost factor",
				Destination: &cost,
			},
		},
		Action: func(ctx *cli.Context) error {
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return errors.New("empty password")
			}

			hash, err := auth.NewBcryptHasher(cost).Hash(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, hash)
			return err
		},
	}
}
