package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/logbarn/logbarn/pkg/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsDir is the path of the embedded migration files within migrationsFS
const migrationsDir = "migrations"

// Migrate applies all pending schema migrations. Safe to run on every boot;
// applied versions are tracked in the goose_db_version table and skipped.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrateTo applies pending migrations up to and including the target version
func MigrateTo(ctx context.Context, db *sql.DB, version int64) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := goose.UpToContext(ctx, db, migrationsDir, version); err != nil {
		return fmt.Errorf("failed to run migrations to version %d: %w", version, err)
	}
	return nil
}

// Status prints the applied/pending state of every known migration
func Status(ctx context.Context, db *sql.DB) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}

// Version returns the currently applied migration version
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	if err := prepare(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return v, nil
}

func prepare() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseLogger{logger: log.WithComponent("migrate")})
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through the structured logger
type gooseLogger struct {
	logger zerolog.Logger
}

func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Fatal().Msgf("%s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Info().Msgf("%s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}
