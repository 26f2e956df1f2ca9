//go:generate mockgen -destination=./mocks/host.go . Host

// Package host talks to the remote repository host. Every operation goes
// through the narrow Host interface so orchestration never depends on a
// particular tool.
package host

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/repo-analysis/repokeep/pkg/config"
)

// Host is the capability set needed from the remote repository host.
type Host interface {
	// Clone clones the repository at url into dest.
	Clone(ctx context.Context, url, dest string) error
	// Delete permanently deletes the named repository on the host.
	Delete(ctx context.Context, name string) error
	// List returns up to limit repositories owned by owner. An empty owner
	// means the authenticated account.
	List(ctx context.Context, owner string, limit int) ([]RemoteRepository, error)
	// Check reports whether the host tooling is usable.
	Check(ctx context.Context) error
}

// Language is a language entry of a remote repository.
type Language struct {
	Size int64 `json:"size"`
	Node struct {
		Name string `json:"name"`
	} `json:"node"`
}

// BranchRef is a reference to a branch.
type BranchRef struct {
	Name string `json:"name"`
}

// RemoteRepository is a repository as reported by the host.
type RemoteRepository struct {
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	URL              string     `json:"url"`
	CreatedAt        string     `json:"createdAt"`
	UpdatedAt        string     `json:"updatedAt"`
	PushedAt         string     `json:"pushedAt"`
	IsArchived       bool       `json:"isArchived"`
	DiskUsage        int64      `json:"diskUsage"`
	Visibility       string     `json:"visibility"`
	Languages        []Language `json:"languages"`
	DefaultBranchRef *BranchRef `json:"defaultBranchRef"`
}

// PrimaryLanguage returns the name of the first language, or an empty string
// if there is none.
func (r RemoteRepository) PrimaryLanguage() string {
	if len(r.Languages) == 0 {
		return ""
	}

	return r.Languages[0].Node.Name
}

// New returns the Host selected by cfg.Host.Driver.
// Deletion and listing always go through the GitHub CLI; the driver only
// selects how repositories are cloned.
func New(ctx context.Context, cfg *config.Config) (Host, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	logger := log.FromContext(ctx).WithPrefix("host")
	gh, err := NewGH(Options{
		Path:       cfg.Host.GHPath,
		Token:      cfg.Host.Token,
		WorkDir:    cfg.Host.WorkDir,
		MinVersion: cfg.Host.MinGHVersion,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.Host.Driver {
	case config.DriverGH, "":
		return gh, nil
	case config.DriverGit:
		return &Git{GH: gh, token: cfg.Host.Token}, nil
	case config.DriverGoGit:
		return &GoGit{GH: gh, token: cfg.Host.Token}, nil
	default:
		return nil, fmt.Errorf("unknown host driver %q", cfg.Host.Driver)
	}
}
