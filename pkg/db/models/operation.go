// Package models contains the database models.
package models

import (
	"database/sql"
	"time"
)

// Operation is a database model for a dispatched operation.
type Operation struct {
	ID           string         `db:"id"`
	Action       string         `db:"action"`
	Repositories string         `db:"repositories"`
	Success      bool           `db:"success"`
	Message      string         `db:"message"`
	ArchivePath  sql.NullString `db:"archive_path"`
	CreatedAt    time.Time      `db:"created_at"`
}

// OperationResult is a database model for the outcome of one repository
// within an operation.
type OperationResult struct {
	OperationID string         `db:"operation_id"`
	Position    int            `db:"position"`
	Name        string         `db:"name"`
	Success     bool           `db:"success"`
	Error       sql.NullString `db:"error"`
}
