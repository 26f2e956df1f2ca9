// Package cmd holds the helpers shared by the repokeep commands.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/config"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/db/migrate"
	"github.com/repo-analysis/repokeep/pkg/host"
	"github.com/repo-analysis/repokeep/pkg/store"
	"github.com/repo-analysis/repokeep/pkg/store/database"
	"github.com/spf13/cobra"
)

// ErrOperationFailed is returned by commands whose response envelope
// reports a failure.
var ErrOperationFailed = errors.New("operation failed")

// InitBackendContext initializes the backend context.
// It opens and migrates the database, builds the host adapter, and attaches
// the database, store, and backend to the command context.
func InitBackendContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return config.ErrNilConfig
	}
	if _, err := os.Stat(cfg.DataPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(cfg.DataPath, os.ModePerm); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	dbx, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DataSource)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := migrate.Migrate(ctx, dbx); err != nil {
		dbx.Close() // nolint: errcheck
		return fmt.Errorf("migration error: %w", err)
	}

	h, err := host.New(ctx, cfg)
	if err != nil {
		dbx.Close() // nolint: errcheck
		return fmt.Errorf("create host: %w", err)
	}

	ctx = db.WithContext(ctx, dbx)
	dbstore := database.New(ctx, dbx)
	ctx = store.WithContext(ctx, dbstore)
	be := backend.New(ctx, cfg, dbx, dbstore, h)
	ctx = backend.WithContext(ctx, be)

	cmd.SetContext(ctx)

	return nil
}

// CloseDBContext closes the database context.
func CloseDBContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dbx := db.FromContext(ctx)
	if dbx != nil {
		if err := dbx.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	return nil
}

// PrintJSON writes v to the command output as indented JSON.
func PrintJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
