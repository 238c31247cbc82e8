package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// InitSchema prepares the database schema. When schemaPath names an external
// schema artifact the artifact is executed as-is (it is expected to use
// CREATE TABLE IF NOT EXISTS and may extend tables beyond the built-in
// definition). Otherwise the embedded baseline migrations are applied.
// Safe to call on every startup.
func InitSchema(ctx context.Context, db *DB, schemaPath string) error {
	if schemaPath != "" {
		script, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("read schema artifact %s: %w", schemaPath, err)
		}
		if _, err := db.Writer.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("apply schema artifact %s: %w", schemaPath, err)
		}
		return nil
	}

	return RunMigrations(db.Writer)
}

// RunMigrations applies all pending baseline migrations embedded in the
// binary. Already-applied migrations are skipped.
func RunMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
