// Package migrate keeps the history database schema up to date.
package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/repo-analysis/repokeep/pkg/db"
)

const (
	driverSQLite   = "sqlite"
	driverSQLite3  = "sqlite3"
	driverPostgres = "postgres"
)

// ErrNothingToRollback is returned by Rollback on a database without
// applied migrations.
var ErrNothingToRollback = errors.New("there are no migrations to rollback")

// MigrateFunc applies or reverts one schema change.
type MigrateFunc func(ctx context.Context, h db.Handler) error //nolint:revive

// Migration is a versioned schema change.
type Migration struct {
	Version  int64
	Name     string
	Migrate  MigrateFunc
	Rollback MigrateFunc
}

var migrationsSchema = map[string]string{
	driverSQLite: `CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		version INTEGER NOT NULL UNIQUE
	)`,
	driverPostgres: `CREATE TABLE IF NOT EXISTS migrations (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		version INTEGER NOT NULL UNIQUE
	)`,
}

func ensureMigrationsTable(ctx context.Context, h db.Handler) error {
	driverName := h.DriverName()
	if driverName == driverSQLite3 {
		driverName = driverSQLite
	}

	schema, ok := migrationsSchema[driverName]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", h.DriverName())
	}

	_, err := h.ExecContext(ctx, schema)
	return err
}

// currentVersion returns the latest applied migration version, 0 when none
// is applied.
func currentVersion(ctx context.Context, h db.Handler) (int64, error) {
	var version int64
	err := h.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM migrations")
	return version, err
}

// Migrate applies the pending migrations in a single transaction.
func Migrate(ctx context.Context, dbx *db.DB) error {
	logger := log.FromContext(ctx).WithPrefix("migrate")
	return dbx.TransactionContext(ctx, func(tx *db.Tx) error {
		if err := ensureMigrationsTable(ctx, tx); err != nil {
			return err
		}

		version, err := currentVersion(ctx, tx)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		for _, m := range migrations {
			if m.Version <= version {
				continue
			}

			logger.Debug("applying migration", "version", m.Version, "name", m.Name)
			if err := m.Migrate(ctx, tx); err != nil {
				return fmt.Errorf("migration %d %s: %w", m.Version, m.Name, err)
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO migrations (name, version) VALUES (?, ?)"), m.Name, m.Version); err != nil {
				return err
			}
		}

		return nil
	})
}

// Rollback reverts the latest applied migration.
func Rollback(ctx context.Context, dbx *db.DB) error {
	logger := log.FromContext(ctx).WithPrefix("migrate")
	return dbx.TransactionContext(ctx, func(tx *db.Tx) error {
		version, err := currentVersion(ctx, tx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNothingToRollback, err)
		}

		if version == 0 || int(version) > len(migrations) {
			return ErrNothingToRollback
		}

		m := migrations[version-1]
		logger.Info("rolling back migration", "version", m.Version, "name", m.Name)
		if err := m.Rollback(ctx, tx); err != nil {
			return fmt.Errorf("rollback %d %s: %w", m.Version, m.Name, err)
		}

		_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM migrations WHERE version = ?"), version)
		return err
	})
}
