package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/db/models"
	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/repo-analysis/repokeep/pkg/utils"
)

// DefaultHistoryLimit is the number of operations returned when no limit is
// given.
const DefaultHistoryLimit = 50

// RecordOperation stores a dispatched request and its response in the
// operation history. It is a no-op without a database.
func (d *Backend) RecordOperation(ctx context.Context, req proto.Request, resp proto.Response) error {
	if d.db == nil || d.store == nil {
		return nil
	}

	op := models.Operation{
		ID:           uuid.NewString(),
		Action:       req.Action.String(),
		Repositories: strings.Join(req.Repositories, ","),
		Success:      resp.Success,
		Message:      resp.Message,
		ArchivePath:  sql.NullString{String: resp.ArchivePath, Valid: resp.ArchivePath != ""},
		CreatedAt:    d.now(),
	}

	results := make([]models.OperationResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, models.OperationResult{
			Name:    r.Name,
			Success: r.Success,
			Error:   sql.NullString{String: r.Error, Valid: r.Error != ""},
		})
	}

	return d.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return d.store.CreateOperation(ctx, tx, op, results)
	})
}

// Operations returns up to limit recorded operations created at or after
// since, newest first.
func (d *Backend) Operations(ctx context.Context, limit int, since time.Time) ([]proto.Operation, error) {
	ops := make([]proto.Operation, 0)
	if d.db == nil || d.store == nil {
		return ops, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	ms, err := d.store.GetOperations(ctx, d.db, limit, since)
	if err != nil {
		return nil, err
	}

	for _, m := range ms {
		op, err := d.operation(ctx, m)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	return ops, nil
}

// Operation returns the recorded operation with the given id. It returns
// proto.ErrOperationNotFound when there is no such operation or no database.
func (d *Backend) Operation(ctx context.Context, id string) (proto.Operation, error) {
	if d.db == nil || d.store == nil {
		return proto.Operation{}, proto.ErrOperationNotFound
	}

	m, err := d.store.GetOperationByID(ctx, d.db, id)
	if errors.Is(err, db.ErrRecordNotFound) {
		return proto.Operation{}, fmt.Errorf("%w: %s", proto.ErrOperationNotFound, id)
	}
	if err != nil {
		return proto.Operation{}, err
	}

	return d.operation(ctx, m)
}

func (d *Backend) operation(ctx context.Context, m models.Operation) (proto.Operation, error) {
	rs, err := d.store.GetOperationResults(ctx, d.db, m.ID)
	if err != nil {
		return proto.Operation{}, err
	}

	op := proto.Operation{
		ID:           m.ID,
		Action:       proto.Action(m.Action),
		Repositories: utils.SplitNames(m.Repositories),
		Success:      m.Success,
		Message:      m.Message,
		ArchivePath:  m.ArchivePath.String,
		CreatedAt:    m.CreatedAt,
	}
	for _, r := range rs {
		op.Results = append(op.Results, proto.DeletionResult{
			Name:    r.Name,
			Success: r.Success,
			Error:   r.Error.String,
		})
	}

	return op, nil
}

// PruneOperations deletes the operations created before the given time.
func (d *Backend) PruneOperations(ctx context.Context, before time.Time) (int64, error) {
	if d.db == nil || d.store == nil {
		return 0, nil
	}

	return d.store.DeleteOperationsBefore(ctx, d.db, before)
}
