package backend

import (
	"context"
	"time"

	"github.com/repo-analysis/repokeep/pkg/catalog"
	"github.com/repo-analysis/repokeep/pkg/host"
)

// RefreshCatalog lists the repositories on the remote host and replaces the
// catalog with them. It returns the number of repositories written.
//
// Concurrent calls share a single refresh.
func (d *Backend) RefreshCatalog(ctx context.Context) (int, error) {
	v, err, shared := d.refresh.Do("catalog", func() (interface{}, error) {
		return d.refreshCatalog(ctx)
	})
	if err != nil {
		return 0, err
	}
	if shared {
		d.logger.Debug("joined in-flight catalog refresh")
	}

	return v.(int), nil
}

func (d *Backend) refreshCatalog(ctx context.Context) (int, error) {
	cctx, cancel := d.hostContext(ctx)
	defer cancel()

	remote, err := d.host.List(cctx, d.cfg.Host.Owner, d.cfg.Host.ListLimit)
	if err != nil {
		d.logger.Error("failed to list repositories", "err", err)
		return 0, err
	}

	now := d.now()
	repos := make([]catalog.Repository, 0, len(remote))
	for _, r := range remote {
		repos = append(repos, newRepository(r, now, d.cfg.Catalog.InactiveDays))
	}

	if err := d.catalog.Save(ctx, repos); err != nil {
		d.logger.Error("failed to save catalog", "path", d.catalog.Path(), "err", err)
		return 0, err
	}

	catalogGauge.Set(float64(len(repos)))
	d.logger.Info("catalog refreshed", "path", d.catalog.Path(), "count", len(repos))

	return len(repos), nil
}

func newRepository(r host.RemoteRepository, now time.Time, inactiveDays int) catalog.Repository {
	repo := catalog.Repository{
		Name:            r.Name,
		URL:             r.URL,
		Description:     r.Description,
		IsArchived:      r.IsArchived,
		DiskUsage:       r.DiskUsage,
		Visibility:      r.Visibility,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		PushedAt:        r.PushedAt,
		PrimaryLanguage: r.PrimaryLanguage(),
	}
	repo.Derive(now, inactiveDays)

	return repo
}
