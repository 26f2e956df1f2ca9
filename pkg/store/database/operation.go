package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/db/models"
	"github.com/repo-analysis/repokeep/pkg/store"
)

type operationStore struct {
	logger *log.Logger
}

var _ store.OperationStore = (*operationStore)(nil)

// CreateOperation implements store.OperationStore.
func (*operationStore) CreateOperation(ctx context.Context, h db.Handler, op models.Operation, results []models.OperationResult) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now()
	}

	query := h.Rebind(`INSERT INTO operations (id, action, repositories, success, message, archive_path, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := h.ExecContext(ctx, query,
		op.ID, op.Action, op.Repositories, op.Success, op.Message, op.ArchivePath, op.CreatedAt.UTC(),
	); err != nil {
		return db.WrapError(err)
	}

	query = h.Rebind(`INSERT INTO operation_results (operation_id, position, name, success, error)
	VALUES (?, ?, ?, ?, ?)`)
	for i, r := range results {
		if _, err := h.ExecContext(ctx, query, op.ID, i, r.Name, r.Success, r.Error); err != nil {
			return db.WrapError(err)
		}
	}

	return nil
}

// GetOperations implements store.OperationStore.
func (*operationStore) GetOperations(ctx context.Context, h db.Handler, limit int, since time.Time) ([]models.Operation, error) {
	var ops []models.Operation
	query := h.Rebind(`SELECT * FROM operations WHERE created_at >= ? ORDER BY created_at DESC, id LIMIT ?`)
	err := h.SelectContext(ctx, &ops, query, since.UTC(), limit)
	return ops, db.WrapError(err)
}

// GetOperationByID implements store.OperationStore.
func (*operationStore) GetOperationByID(ctx context.Context, h db.Handler, id string) (models.Operation, error) {
	var op models.Operation
	query := h.Rebind(`SELECT * FROM operations WHERE id = ?`)
	err := h.GetContext(ctx, &op, query, id)
	return op, db.WrapError(err)
}

// GetOperationResults implements store.OperationStore.
func (*operationStore) GetOperationResults(ctx context.Context, h db.Handler, id string) ([]models.OperationResult, error) {
	var rs []models.OperationResult
	query := h.Rebind(`SELECT * FROM operation_results WHERE operation_id = ? ORDER BY position`)
	err := h.SelectContext(ctx, &rs, query, id)
	return rs, db.WrapError(err)
}

// DeleteOperationsBefore implements store.OperationStore.
func (s *operationStore) DeleteOperationsBefore(ctx context.Context, h db.Handler, before time.Time) (int64, error) {
	query := h.Rebind(`DELETE FROM operation_results WHERE operation_id IN (SELECT id FROM operations WHERE created_at < ?)`)
	if _, err := h.ExecContext(ctx, query, before.UTC()); err != nil {
		return 0, db.WrapError(err)
	}

	query = h.Rebind(`DELETE FROM operations WHERE created_at < ?`)
	res, err := h.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, db.WrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	s.logger.Debug("pruned operations", "before", before, "count", n)
	return n, nil
}
