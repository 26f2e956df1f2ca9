package proto

import "time"

// Operation is a recorded dispatch of an action.
type Operation struct {
	ID           string           `json:"id"`
	Action       Action           `json:"action"`
	Repositories []string         `json:"repositories"`
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	ArchivePath  string           `json:"archive_path,omitempty"`
	Results      []DeletionResult `json:"results,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
