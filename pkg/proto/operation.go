package proto

import (
	"encoding/json"
	"strings"
)

// Action is an operation a caller can request.
type Action string

const (
	// ActionArchive clones repositories and packages them into a zip file.
	ActionArchive Action = "archive"
	// ActionDelete deletes repositories on the remote host.
	ActionDelete Action = "delete"
	// ActionRefresh rebuilds the repository catalog from the remote host.
	ActionRefresh Action = "refresh"
)

// String returns the action name.
func (a Action) String() string {
	return string(a)
}

// Request is an action together with the ordered repository names it
// applies to.
type Request struct {
	Action       Action   `json:"action"`
	Repositories []string `json:"repositories"`
}

// ParseRepositories decodes a JSON array of repository names. Anything that
// does not decode to an array of strings yields an empty list.
func ParseRepositories(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil
	}

	return names
}

// DeletionResult is the outcome of deleting a single repository.
type DeletionResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ArchiveResult is the outcome of an archive operation.
type ArchiveResult struct {
	// Path is the absolute path of the archive file.
	Path string
	// Archived lists the repositories packaged into the archive, in request
	// order.
	Archived []string
	// Skipped lists the repositories that were requested but not archived,
	// in request order.
	Skipped []string
}

// Response is the envelope returned to every caller.
type Response struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	ArchivePath string           `json:"archive_path,omitempty"`
	Skipped     []string         `json:"skipped,omitempty"`
	Results     []DeletionResult `json:"results,omitempty"`
	Count       *int             `json:"count,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
}

// Failure returns a failed response with the given message.
func Failure(msg string) Response {
	return Response{Success: false, Message: msg}
}
