// Package store defines the persistence interfaces of the operation history.
package store

import (
	"context"
	"time"

	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/db/models"
)

// Store is an interface for managing recorded operations.
type Store interface {
	OperationStore
}

// OperationStore is an interface for managing the operation history.
type OperationStore interface {
	// CreateOperation records an operation together with its per-repository
	// results.
	CreateOperation(ctx context.Context, h db.Handler, op models.Operation, results []models.OperationResult) error
	// GetOperations returns up to limit operations created at or after
	// since, newest first. A zero since returns all operations.
	GetOperations(ctx context.Context, h db.Handler, limit int, since time.Time) ([]models.Operation, error)
	GetOperationByID(ctx context.Context, h db.Handler, id string) (models.Operation, error)
	GetOperationResults(ctx context.Context, h db.Handler, id string) ([]models.OperationResult, error)
	DeleteOperationsBefore(ctx context.Context, h db.Handler, before time.Time) (int64, error)
}
