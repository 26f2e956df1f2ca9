package backend

import (
	"context"

	"github.com/repo-analysis/repokeep/pkg/proto"
	"golang.org/x/sync/errgroup"
)

// DeleteRepositories deletes the named repositories on the remote host.
// It returns exactly one result per name, in request order. A failure of
// one repository never stops the others and nothing is rolled back.
func (d *Backend) DeleteRepositories(ctx context.Context, names []string) []proto.DeletionResult {
	results := make([]proto.DeletionResult, len(names))

	var g errgroup.Group
	g.SetLimit(d.workers())
	for i, name := range names {
		g.Go(func() error {
			results[i] = d.deleteRepository(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Backend) deleteRepository(ctx context.Context, name string) proto.DeletionResult {
	res := proto.DeletionResult{Name: name}
	err := validateName(name)
	if err == nil {
		cctx, cancel := d.hostContext(ctx)
		d.logger.Debug("deleting repository", "repo", name)
		err = guard(func() error { return d.host.Delete(cctx, name) })
		cancel()
	}

	repositoryCounter.WithLabelValues(proto.ActionDelete.String(), status(err)).Inc()
	if err != nil {
		d.logger.Error("failed to delete repository", "repo", name, "err", err)
		res.Error = err.Error()
		return res
	}

	d.logger.Info("repository deleted", "repo", name)
	res.Success = true
	return res
}
