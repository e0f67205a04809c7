package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"socialnet/internal/config"
	"socialnet/internal/database"
	"socialnet/internal/logger"
	transport "socialnet/internal/transport/http"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var logLevelFlag = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "Override LOG_LEVEL",
	Validator: func(value string) error {
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, validLogLevels)
		}
		return nil
	},
}

var cmd = &cli.Command{
	Name:  "socialnet",
	Usage: "Social network API server",
	Flags: []cli.Flag{
		logLevelFlag,
	},
	Commands: []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Apply migrations and serve the HTTP API",
			Action: serve,
		},
		{
			Name:   "migrate",
			Usage:  "Apply database migrations and exit",
			Action: migrate,
		},
	},
	DefaultCommand: "serve",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(c *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, log, nil
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := transport.Run(ctx, cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		return err
	}
	return nil
}

func migrate(ctx context.Context, c *cli.Command) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}
