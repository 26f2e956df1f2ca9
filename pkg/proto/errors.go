package proto

import (
	"errors"
)

var (
	// ErrCatalogUnavailable is returned when the repository catalog cannot be
	// read or decoded.
	ErrCatalogUnavailable = errors.New("repository catalog unavailable")
	// ErrRepoNotFound is returned when a repository is not in the catalog.
	ErrRepoNotFound = errors.New("repository not found")
	// ErrInvalidRepo is returned when a repository name is not a valid name.
	ErrInvalidRepo = errors.New("invalid repository name")
	// ErrArchiveFailed is returned when the archive file cannot be created.
	ErrArchiveFailed = errors.New("archive creation failed")
	// ErrOperationNotFound is returned when no recorded operation has the
	// requested id.
	ErrOperationNotFound = errors.New("operation not found")
	// ErrNothingToReport is returned when a report selects no catalog
	// repository.
	ErrNothingToReport = errors.New("no repositories found to analyze")
	// ErrMissingParameters is returned when a request has no action or no
	// repositories.
	ErrMissingParameters = errors.New("missing required parameters")
	// ErrUnknownAction is returned when a request names an unsupported action.
	ErrUnknownAction = errors.New("unknown action")
)
