package migrate

import (
	"context"

	"github.com/repo-analysis/repokeep/pkg/db"
)

const (
	createOperationsName    = "create operations"
	createOperationsVersion = 1
)

var createOperations = Migration{
	Name:    createOperationsName,
	Version: createOperationsVersion,
	Migrate: func(ctx context.Context, h db.Handler) error {
		return migrateUp(ctx, h, createOperationsVersion, createOperationsName)
	},
	Rollback: func(ctx context.Context, h db.Handler) error {
		return migrateDown(ctx, h, createOperationsVersion, createOperationsName)
	},
}
