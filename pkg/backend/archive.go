package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/repo-analysis/repokeep/pkg/archive"
	"github.com/repo-analysis/repokeep/pkg/catalog"
	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/repo-analysis/repokeep/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// ArchiveRepositories clones the named repositories and packages them into a
// single zip file in the archive directory.
//
// Names that are invalid, missing from the catalog, or that fail to clone are
// skipped and reported in the result. It only fails when the catalog cannot
// be loaded or the archive file cannot be written.
func (d *Backend) ArchiveRepositories(ctx context.Context, names []string) (proto.ArchiveResult, error) {
	now := d.now()
	repos, err := d.catalog.Load(ctx)
	if err != nil {
		return proto.ArchiveResult{}, err
	}
	idx := catalog.Index(repos)

	if d.cfg.Archive.ScratchDir != "" {
		if err := os.MkdirAll(d.cfg.Archive.ScratchDir, os.ModePerm); err != nil {
			return proto.ArchiveResult{}, fmt.Errorf("%w: %w", proto.ErrArchiveFailed, err)
		}
	}

	scratch, err := os.MkdirTemp(d.cfg.Archive.ScratchDir, "repokeep-archive-")
	if err != nil {
		return proto.ArchiveResult{}, fmt.Errorf("%w: %w", proto.ErrArchiveFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			d.logger.Error("failed to remove scratch directory", "path", scratch, "err", err)
		}
	}()

	names = utils.AppendUnique(nil, names...)
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(d.workers())
	for i, name := range names {
		g.Go(func() error {
			errs[i] = d.cloneRepository(ctx, idx, scratch, name)
			return nil
		})
	}
	_ = g.Wait()

	res := proto.ArchiveResult{
		Archived: make([]string, 0, len(names)),
		Skipped:  make([]string, 0),
	}
	for i, name := range names {
		repositoryCounter.WithLabelValues(proto.ActionArchive.String(), status(errs[i])).Inc()
		if errs[i] != nil {
			d.logger.Warn("skipping repository", "repo", name, "err", errs[i])
			res.Skipped = append(res.Skipped, name)
			continue
		}
		res.Archived = append(res.Archived, name)
	}

	path, err := d.writeArchive(ctx, scratch, res.Archived, now)
	archiveCounter.WithLabelValues(status(err)).Inc()
	if err != nil {
		return proto.ArchiveResult{}, err
	}

	res.Path = path
	d.logger.Info("archive created", "path", path, "archived", len(res.Archived), "skipped", len(res.Skipped))

	return res, nil
}

// cloneRepository clones name into scratch and strips its version control
// metadata. A failed clone leaves nothing behind.
func (d *Backend) cloneRepository(ctx context.Context, idx map[string]catalog.Repository, scratch string, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	repo, ok := idx[name]
	if !ok || repo.URL == "" {
		return proto.ErrRepoNotFound
	}

	dest := filepath.Join(scratch, name)
	cctx, cancel := d.hostContext(ctx)
	defer cancel()

	d.logger.Debug("cloning repository", "repo", name, "url", repo.URL)
	if err := guard(func() error { return d.host.Clone(cctx, repo.URL, dest) }); err != nil {
		if rerr := os.RemoveAll(dest); rerr != nil {
			d.logger.Error("failed to remove partial clone", "path", dest, "err", rerr)
		}
		return err
	}

	if err := os.RemoveAll(filepath.Join(dest, ".git")); err != nil {
		d.logger.Warn("failed to remove .git directory", "repo", name, "err", err)
	}

	return nil
}

func (d *Backend) writeArchive(ctx context.Context, scratch string, names []string, now time.Time) (path string, err error) {
	f, err := archive.Create(d.cfg.Archive.Dir, now)
	if err != nil {
		return "", fmt.Errorf("%w: %w", proto.ErrArchiveFailed, err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err = archive.Write(ctx, f, scratch, names); err != nil {
		f.Close() // nolint: errcheck
		return "", fmt.Errorf("%w: %w", proto.ErrArchiveFailed, err)
	}

	if err = f.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", proto.ErrArchiveFailed, err)
	}

	path, err = filepath.Abs(f.Name())
	if err != nil {
		return "", fmt.Errorf("%w: %w", proto.ErrArchiveFailed, err)
	}

	return path, nil
}
