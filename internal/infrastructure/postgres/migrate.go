package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"go.uber.org/zap"

	"github.com/idforge/backend/internal/config"
)

// RunMigrations brings the database schema up to the latest migration under
// cfg.Migrations.Path. A no-op when migrations are disabled; a dirty schema
// version surfaces as an error rather than being forced.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping database for migration: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	source := "file://" + filepath.ToSlash(cfg.Migrations.Path)
	migrator, err := migrate.NewWithDatabaseInstance(source, cfg.Database.Name, driver)
	if err != nil {
		return fmt.Errorf("load migrations from %s: %w", cfg.Migrations.Path, err)
	}
	defer migrator.Close()

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("database schema up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, verr := migrator.Version()
	if verr != nil {
		logger.Info("database migrations applied")
		return nil
	}
	logger.Info("database migrations applied",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}
