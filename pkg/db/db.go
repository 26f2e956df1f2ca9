// Package db provides the database connection used to record operation
// history.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/repo-analysis/repokeep/pkg/config"
	_ "modernc.org/sqlite" // sqlite driver
)

// ContextKey is the key of the database in a context.
var ContextKey = &struct{ string }{"db"}

// FromContext returns the database stored in ctx, if any.
func FromContext(ctx context.Context) *DB {
	if d, ok := ctx.Value(ContextKey).(*DB); ok {
		return d
	}
	return nil
}

// WithContext returns a copy of ctx carrying d.
func WithContext(ctx context.Context, d *DB) context.Context {
	return context.WithValue(ctx, ContextKey, d)
}

// DB wraps a sqlx connection pool. Queries are traced in verbose mode.
type DB struct {
	*sqlx.DB
	logger *log.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driverName string, dsn string) (*DB, error) {
	dbx, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", driverName, err)
	}

	d := &DB{DB: dbx}
	if config.IsVerbose() {
		d.logger = log.FromContext(ctx).WithPrefix("db")
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.DB.Close()
}

// Tx is a database transaction.
type Tx struct {
	*sqlx.Tx
	logger *log.Logger
}

// TransactionContext runs fn in a transaction. The transaction is rolled
// back if fn returns an error and committed otherwise.
func (d *DB) TransactionContext(ctx context.Context, fn func(tx *Tx) error) error {
	txx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	tx := &Tx{txx, d.logger}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %w: %w", err, rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
