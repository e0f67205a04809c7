package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"socialnet/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DSN builds the lib/pq connection string from config.
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
}

func Connect(cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	log.Info("connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db, nil
}

// gooseUp is swapped in tests.
var gooseUp = func(ctx context.Context, db *sqlx.DB) error {
	return goose.UpContext(ctx, db.DB, "migrations")
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(zap.NewStdLog(log.Named("goose")))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
