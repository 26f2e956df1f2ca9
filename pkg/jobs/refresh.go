package jobs

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/config"
	"github.com/repo-analysis/repokeep/pkg/dispatch"
	"github.com/repo-analysis/repokeep/pkg/proto"
)

// RefreshJobName is the name of the catalog refresh job.
const RefreshJobName = "catalog-refresh"

func init() {
	Register(RefreshJobName, catalogRefresh{})
}

type catalogRefresh struct{}

var _ Runner = catalogRefresh{}

// Spec implements Runner.
func (catalogRefresh) Spec(ctx context.Context) string {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return ""
	}
	return cfg.Jobs.Refresh
}

// Func implements Runner.
func (catalogRefresh) Func(ctx context.Context) func() {
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("jobs.refresh")
	d := dispatch.New(ctx, be)
	return func() {
		logger.Debug("refreshing catalog")
		resp := d.DispatchRefresh(ctx, proto.ActionRefresh.String())
		if !resp.Success {
			logger.Error("catalog refresh failed", "message", resp.Message)
			return
		}
		logger.Info(resp.Message)
	}
}
