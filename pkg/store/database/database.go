// Package database implements store.Store on top of pkg/db.
package database

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/store"
)

type datastore struct {
	*operationStore
}

var _ store.Store = (*datastore)(nil)

// New returns a store.Store writing to d. Callers pass d, or a transaction
// of d, as the handler of every store method.
func New(ctx context.Context, d *db.DB) store.Store {
	logger := log.FromContext(ctx).WithPrefix("store")
	if d != nil {
		logger = logger.With("driver", d.DriverName())
	}

	return &datastore{
		operationStore: &operationStore{logger: logger},
	}
}
