// Package catalog reads and writes the repository catalog, a JSON snapshot
// of the repositories known on the remote host.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/repo-analysis/repokeep/pkg/proto"
)

// Visibility values reported by the remote host.
const (
	VisibilityPublic   = "PUBLIC"
	VisibilityPrivate  = "PRIVATE"
	VisibilityInternal = "INTERNAL"
)

// NoLanguage is the primary language of repositories without detected
// languages.
const NoLanguage = "None"

// Repository is a catalog record.
type Repository struct {
	Name              string  `json:"name"`
	URL               string  `json:"url"`
	Description       string  `json:"description"`
	IsArchived        bool    `json:"isArchived"`
	DiskUsage         int64   `json:"diskUsage"`
	DiskUsageMB       float64 `json:"diskUsageMB"`
	Visibility        string  `json:"visibility"`
	CreatedAt         string  `json:"createdAt,omitempty"`
	UpdatedAt         string  `json:"updatedAt,omitempty"`
	PushedAt          string  `json:"pushedAt,omitempty"`
	DaysSinceLastPush int     `json:"daysSinceLastPush"`
	Inactive          bool    `json:"inactive"`
	PrimaryLanguage   string  `json:"primaryLanguage"`
}

// Derive fills the fields computed from the raw host data: the size in MB,
// the days since the last push, and the inactive flag.
func (r *Repository) Derive(now time.Time, inactiveDays int) {
	r.DiskUsageMB = math.Round(float64(r.DiskUsage)/10) / 100
	if r.PrimaryLanguage == "" {
		r.PrimaryLanguage = NoLanguage
	}

	pushed, err := time.Parse(time.RFC3339, r.PushedAt)
	if err != nil {
		return
	}

	r.DaysSinceLastPush = int(now.Sub(pushed).Hours() / 24)
	r.Inactive = r.DaysSinceLastPush > inactiveDays
}

// Catalog is a file backed repository catalog. It holds no state besides
// its path: every Load reads the file again.
type Catalog struct {
	path string
}

// New returns a catalog stored at path.
func New(path string) *Catalog {
	return &Catalog{path: path}
}

// Path returns the catalog file path.
func (c *Catalog) Path() string {
	return c.path
}

// Load reads every record from the catalog file.
// It returns an error wrapping proto.ErrCatalogUnavailable when the file is
// missing, unreadable, or not a JSON array of records.
func (c *Catalog) Load(ctx context.Context) ([]Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", proto.ErrCatalogUnavailable, err)
	}

	bts, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", proto.ErrCatalogUnavailable, err)
	}

	if !bytes.HasPrefix(bytes.TrimSpace(bts), []byte("[")) {
		return nil, fmt.Errorf("%w: %s is not a JSON array", proto.ErrCatalogUnavailable, c.path)
	}

	repos := make([]Repository, 0)
	if err := json.Unmarshal(bts, &repos); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", proto.ErrCatalogUnavailable, c.path, err)
	}

	return repos, nil
}

// Save replaces the catalog file with the given records. The file is
// written to a temporary sibling and renamed into place so readers never see
// a partial catalog.
func (c *Catalog) Save(_ context.Context, repos []Repository) (err error) {
	if repos == nil {
		repos = []Repository{}
	}

	bts, err := json.MarshalIndent(repos, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("create temporary catalog: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(bts); err != nil {
		f.Close() // nolint: errcheck
		return fmt.Errorf("write catalog: %w", err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}

	if err = os.Rename(f.Name(), c.path); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}

	return nil
}

// Index maps repository names to records. When a name appears more than
// once, the last record wins.
func Index(repos []Repository) map[string]Repository {
	idx := make(map[string]Repository, len(repos))
	for _, r := range repos {
		idx[r.Name] = r
	}

	return idx
}

// Names returns the names of the records accepted by keep, in catalog order.
// A nil keep accepts every record.
func Names(repos []Repository, keep func(Repository) bool) []string {
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		if keep == nil || keep(r) {
			names = append(names, r.Name)
		}
	}

	return names
}
