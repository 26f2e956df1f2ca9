package backend

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/repo-analysis/repokeep/pkg/catalog"
	"github.com/repo-analysis/repokeep/pkg/config"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/host"
	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/repo-analysis/repokeep/pkg/store"
	"github.com/repo-analysis/repokeep/pkg/utils"
	"golang.org/x/sync/singleflight"
)

// Backend is the repokeep backend that orchestrates archive, delete and
// refresh operations against the remote host.
type Backend struct {
	cfg     *config.Config
	db      *db.DB
	store   store.Store
	host    host.Host
	catalog *catalog.Catalog
	logger  *log.Logger
	now     func() time.Time

	refresh singleflight.Group
}

// New returns a new repokeep backend. db and st may be nil, in which case
// operations are not recorded.
func New(ctx context.Context, cfg *config.Config, db *db.DB, st store.Store, h host.Host) *Backend {
	logger := log.FromContext(ctx).WithPrefix("backend")
	b := &Backend{
		cfg:     cfg,
		db:      db,
		store:   st,
		host:    h,
		catalog: catalog.New(cfg.Catalog.Path),
		logger:  logger,
		now:     time.Now,
	}

	return b
}

// Catalog returns the repository catalog.
func (d *Backend) Catalog() *catalog.Catalog {
	return d.catalog
}

// Repositories returns the records of the repository catalog.
func (d *Backend) Repositories(ctx context.Context) ([]catalog.Repository, error) {
	return d.catalog.Load(ctx)
}

// Summary returns the summary of the repository catalog.
func (d *Backend) Summary(ctx context.Context) (catalog.Summary, error) {
	repos, err := d.catalog.Load(ctx)
	if err != nil {
		return catalog.Summary{}, err
	}

	return catalog.Summarize(repos), nil
}

// Report returns the maintenance report of the named catalog repositories,
// or of the whole catalog when names is empty. Names missing from the
// catalog are ignored.
func (d *Backend) Report(ctx context.Context, names []string) (catalog.Report, error) {
	repos, err := d.catalog.Load(ctx)
	if err != nil {
		return catalog.Report{}, err
	}

	if len(names) > 0 {
		idx := catalog.Index(repos)
		repos = make([]catalog.Repository, 0, len(names))
		for _, name := range utils.AppendUnique(nil, names...) {
			if r, ok := idx[name]; ok {
				repos = append(repos, r)
			}
		}
	}

	if len(repos) == 0 {
		return catalog.Report{}, proto.ErrNothingToReport
	}

	return catalog.NewReport(repos, d.now()), nil
}

// Ready reports whether the host tooling and the database are usable.
func (d *Backend) Ready(ctx context.Context) error {
	if err := d.host.Check(ctx); err != nil {
		return err
	}

	if d.db != nil {
		if err := d.db.PingContext(ctx); err != nil {
			return err
		}
	}

	return nil
}

// workers returns the number of repositories processed concurrently.
func (d *Backend) workers() int {
	if d.cfg.Workers < 1 {
		return 1
	}
	return d.cfg.Workers
}

// hostContext returns the context of a single host call.
func (d *Backend) hostContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.Host.Timeout > 0 {
		return context.WithTimeout(ctx, d.cfg.Host.Timeout)
	}
	return context.WithCancel(ctx)
}
