package db

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/guffzilla/wartest-sub004/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens the sqlite database, applies the pragmas the engine relies on
// and runs any pending migrations.
func Open(path string, log zerolog.Logger) (*sql.DB, error) {
	dlog := logger.Component(log, "db")

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path)
	dlog.Info().Str("path", path).Msg("opening database")

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		dlog.Error().Err(err).Msg("failed to open database")
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // sqlite allows a single writer

	if err := Migrate(sqlDB); err != nil {
		dlog.Error().Err(err).Msg("failed to apply migrations")
		return nil, err
	}

	dlog.Info().Msg("database ready")
	return sqlDB, nil
}

// Migrate applies the embedded goose migrations. Exposed so tests can bring
// up in-memory databases with the production schema.
func Migrate(sqlDB *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
