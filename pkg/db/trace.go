package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

// trace starts timing a query. The returned func logs the query together
// with its duration and error. It is a no-op without a logger.
func trace(l *log.Logger, query string, args []interface{}) func(error) {
	if l == nil {
		return func(error) {}
	}

	start := time.Now()
	return func(err error) {
		kv := []interface{}{
			"query", strings.Join(strings.Fields(query), " "),
			"args", args,
			"took", time.Since(start),
		}
		if err != nil {
			kv = append(kv, "err", err)
		}
		l.Debug("trace", kv...)
	}
}

// SelectContext runs sqlx.SelectContext and traces the query.
func (d *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	done := trace(d.logger, query, args)
	err := d.DB.SelectContext(ctx, dest, query, args...)
	done(err)
	return err
}

// GetContext runs sqlx.GetContext and traces the query.
func (d *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	done := trace(d.logger, query, args)
	err := d.DB.GetContext(ctx, dest, query, args...)
	done(err)
	return err
}

// QueryxContext runs sqlx.QueryxContext and traces the query.
func (d *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	done := trace(d.logger, query, args)
	rows, err := d.DB.QueryxContext(ctx, query, args...)
	done(err)
	return rows, err
}

// ExecContext runs sqlx.ExecContext and traces the query.
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	done := trace(d.logger, query, args)
	res, err := d.DB.ExecContext(ctx, query, args...)
	done(err)
	return res, err
}

func (t *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	done := trace(t.logger, query, args)
	err := t.Tx.SelectContext(ctx, dest, query, args...)
	done(err)
	return err
}

func (t *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	done := trace(t.logger, query, args)
	err := t.Tx.GetContext(ctx, dest, query, args...)
	done(err)
	return err
}

func (t *Tx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	done := trace(t.logger, query, args)
	rows, err := t.Tx.QueryxContext(ctx, query, args...)
	done(err)
	return rows, err
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	done := trace(t.logger, query, args)
	res, err := t.Tx.ExecContext(ctx, query, args...)
	done(err)
	return res, err
}
