// Package migration runs schema migrations with goose. The SQL scripts are
// embedded so a deployed binary migrates without the source tree.
package migration

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"quillform/internal/shared/logger"
)

//go:embed scripts/*.sql
var scripts embed.FS

// dialectFor maps the GORM driver name to a goose dialect.
func dialectFor(driver string) (string, error) {
	switch driver {
	case "mysql", "":
		return "mysql", nil
	case "sqlite":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Up applies all pending migrations.
func Up(db *gorm.DB, driver string) error {
	return run(db, driver, func(dbc *sql.DB) error { return goose.Up(dbc, "scripts") })
}

// Down rolls back the most recent migration.
func Down(db *gorm.DB, driver string) error {
	return run(db, driver, func(dbc *sql.DB) error { return goose.Down(dbc, "scripts") })
}

// Status prints the migration status.
func Status(db *gorm.DB, driver string) error {
	return run(db, driver, func(dbc *sql.DB) error { return goose.Status(dbc, "scripts") })
}

func run(db *gorm.DB, driver string, fn func(*sql.DB) error) error {
	dialect, err := dialectFor(driver)
	if err != nil {
		return err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(scripts)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	logger.Info("running migrations", "dialect", dialect)
	if err := fn(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
