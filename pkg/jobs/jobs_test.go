package jobs

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/config"
	"github.com/repo-analysis/repokeep/pkg/host"
	mock_host "github.com/repo-analysis/repokeep/pkg/host/mocks"
	"go.uber.org/mock/gomock"
)

func TestRegistered(t *testing.T) {
	is := is.New(t)
	j, ok := Get(RefreshJobName)
	is.True(ok)
	is.Equal(j.Name, RefreshJobName)
	is.True(j.Runner != nil)

	names := make([]string, 0)
	for _, j := range List() {
		names = append(names, j.Name)
	}
	is.Equal(names, []string{RefreshJobName})

	defer func() {
		is.True(recover() != nil)
	}()
	Register(RefreshJobName, catalogRefresh{})
}

func TestCatalogRefresh(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	h := mock_host.NewMockHost(ctrl)

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Jobs.Refresh = "@every 1h"
	is.NoErr(cfg.Validate())

	ctx := config.WithContext(context.TODO(), cfg)
	be := backend.New(ctx, cfg, nil, nil, h)
	ctx = backend.WithContext(ctx, be)

	runner := catalogRefresh{}
	is.Equal(runner.Spec(ctx), "@every 1h")
	is.Equal(runner.Spec(context.TODO()), "")

	h.EXPECT().List(gomock.Any(), "", cfg.Host.ListLimit).Return([]host.RemoteRepository{{Name: "one"}}, nil)
	runner.Func(ctx)()

	repos, err := be.Repositories(ctx)
	is.NoErr(err)
	is.Equal(len(repos), 1)
	is.Equal(repos[0].Name, "one")

	h.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, host.ErrToolNotFound)
	runner.Func(ctx)()

	repos, err = be.Repositories(ctx)
	is.NoErr(err)
	is.Equal(len(repos), 1)
}
