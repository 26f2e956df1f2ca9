package backend

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
	"github.com/repo-analysis/repokeep/pkg/catalog"
	"github.com/repo-analysis/repokeep/pkg/config"
	"github.com/repo-analysis/repokeep/pkg/db"
	"github.com/repo-analysis/repokeep/pkg/db/migrate"
	"github.com/repo-analysis/repokeep/pkg/dispatch"
	"github.com/repo-analysis/repokeep/pkg/host"
	mock_host "github.com/repo-analysis/repokeep/pkg/host/mocks"
	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/repo-analysis/repokeep/pkg/store/database"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestBackend(t *testing.T, repos ...catalog.Repository) (*Backend, *mock_host.MockHost) {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := mock_host.NewMockHost(ctrl)

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Archive.ScratchDir = "scratch"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	b := New(context.TODO(), cfg, nil, nil, h)
	b.now = func() time.Time { return fixedNow }
	if repos != nil {
		if err := b.Catalog().Save(context.TODO(), repos); err != nil {
			t.Fatal(err)
		}
	}

	return b, h
}

func withDatabase(t *testing.T, b *Backend) {
	t.Helper()
	ctx := context.TODO()
	dbx, err := db.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = dbx.Close() })
	if err := migrate.Migrate(ctx, dbx); err != nil {
		t.Fatal(err)
	}
	b.db = dbx
	b.store = database.New(ctx, dbx)
}

func fakeClone(_ context.Context, _, dest string) error {
	if err := os.MkdirAll(filepath.Join(dest, ".git"), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "README.md"), []byte("# "+filepath.Base(dest)), 0o600)
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close() // nolint: errcheck

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func scratchEntries(t *testing.T, b *Backend) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(b.cfg.Archive.ScratchDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
	return entries
}

var testRepos = []catalog.Repository{
	{Name: "alpha", URL: "https://github.com/octo/alpha"},
	{Name: "beta", URL: "https://github.com/octo/beta"},
}

func TestArchiveRepositories(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t, testRepos...)

	h.EXPECT().Clone(gomock.Any(), "https://github.com/octo/alpha", gomock.Any()).DoAndReturn(fakeClone)
	h.EXPECT().Clone(gomock.Any(), "https://github.com/octo/beta", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, dest string) error {
			_ = os.MkdirAll(dest, os.ModePerm)
			return &host.ExitError{Code: 1, Stderr: "could not clone"}
		})

	res, err := b.ArchiveRepositories(context.TODO(), []string{"alpha", "beta", "missing"})
	is.NoErr(err)
	is.Equal(res.Archived, []string{"alpha"})
	is.Equal(res.Skipped, []string{"beta", "missing"})
	is.True(filepath.IsAbs(res.Path))
	is.Equal(filepath.Base(res.Path), "github_repos_archive_20240506_070809.zip")
	is.Equal(filepath.Dir(res.Path), b.cfg.Archive.Dir)

	entries := zipEntries(t, res.Path)
	is.True(len(entries) > 0)
	for _, e := range entries {
		is.True(strings.HasPrefix(e, "alpha"))
		is.True(!strings.Contains(e, ".git"))
	}

	is.Equal(len(scratchEntries(t, b)), 0)
}

func TestArchiveRepositoriesSameSecond(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t, testRepos...)
	h.EXPECT().Clone(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(fakeClone).Times(2)

	first, err := b.ArchiveRepositories(context.TODO(), []string{"alpha"})
	is.NoErr(err)
	second, err := b.ArchiveRepositories(context.TODO(), []string{"alpha"})
	is.NoErr(err)
	is.True(first.Path != second.Path)
	is.Equal(filepath.Base(second.Path), "github_repos_archive_20240506_070809_1.zip")
}

func TestArchiveRepositoriesEmpty(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBackend(t, testRepos...)

	res, err := b.ArchiveRepositories(context.TODO(), []string{"missing", "../etc"})
	is.NoErr(err)
	is.Equal(len(res.Archived), 0)
	is.Equal(res.Skipped, []string{"missing", "../etc"})
	is.Equal(len(zipEntries(t, res.Path)), 0)
}

func TestArchiveRepositoriesCatalogUnavailable(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBackend(t)

	_, err := b.ArchiveRepositories(context.TODO(), []string{"alpha"})
	is.True(errors.Is(err, proto.ErrCatalogUnavailable))
	_, err = os.Stat(b.cfg.Archive.Dir)
	is.True(errors.Is(err, os.ErrNotExist))
}

func TestArchiveRepositoriesParallel(t *testing.T) {
	is := is.New(t)
	repos := make([]catalog.Repository, 0, 8)
	names := make([]string, 0, 8)
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		repos = append(repos, catalog.Repository{Name: n, URL: "https://github.com/octo/" + n})
		names = append(names, n)
	}
	b, h := newTestBackend(t, repos...)
	b.cfg.Workers = 3

	var inflight, peak int32
	h.EXPECT().Clone(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, url, dest string) error {
			n := atomic.AddInt32(&inflight, 1)
			defer atomic.AddInt32(&inflight, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			if strings.HasSuffix(url, "/c") {
				return errors.New("boom")
			}
			return fakeClone(ctx, url, dest)
		}).Times(len(names))

	res, err := b.ArchiveRepositories(context.TODO(), names)
	is.NoErr(err)
	is.Equal(res.Archived, []string{"a", "b", "d", "e", "f", "g", "h"})
	is.Equal(res.Skipped, []string{"c"})
	is.True(atomic.LoadInt32(&peak) <= 3)
}

func TestArchiveRepositoriesTimeout(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t, testRepos...)
	b.cfg.Host.Timeout = 20 * time.Millisecond

	h.EXPECT().Clone(gomock.Any(), "https://github.com/octo/alpha", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string) error {
			<-ctx.Done()
			return ctx.Err()
		})
	h.EXPECT().Clone(gomock.Any(), "https://github.com/octo/beta", gomock.Any()).DoAndReturn(fakeClone)

	res, err := b.ArchiveRepositories(context.TODO(), []string{"alpha", "beta"})
	is.NoErr(err)
	is.Equal(res.Archived, []string{"beta"})
	is.Equal(res.Skipped, []string{"alpha"})
}

func TestArchiveRepositoriesClonePanic(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t, testRepos...)

	h.EXPECT().Clone(gomock.Any(), "https://github.com/octo/alpha", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, dest string) error {
			_ = os.MkdirAll(dest, os.ModePerm)
			panic("adapter blew up")
		})
	h.EXPECT().Clone(gomock.Any(), "https://github.com/octo/beta", gomock.Any()).DoAndReturn(fakeClone)

	res, err := b.ArchiveRepositories(context.TODO(), []string{"alpha", "beta"})
	is.NoErr(err)
	is.Equal(res.Archived, []string{"beta"})
	is.Equal(res.Skipped, []string{"alpha"})
	for _, e := range zipEntries(t, res.Path) {
		is.True(strings.HasPrefix(e, "beta"))
	}
	is.Equal(len(scratchEntries(t, b)), 0)
}

func TestDeleteRepositories(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t)

	h.EXPECT().Delete(gomock.Any(), "one").Return(nil)
	h.EXPECT().Delete(gomock.Any(), "two").Return(&host.ExitError{Code: 1, Stderr: "HTTP 404: Not Found"})
	h.EXPECT().Delete(gomock.Any(), "three").Return(nil)

	got := b.DeleteRepositories(context.TODO(), []string{"one", "two", "three", "bad name"})
	want := []proto.DeletionResult{
		{Name: "one", Success: true},
		{Name: "two", Error: "HTTP 404: Not Found"},
		{Name: "three", Success: true},
		{Name: "bad name", Error: got[3].Error},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeleteRepositories() mismatch (-want +got):\n%s", diff)
	}
	is.True(strings.HasPrefix(got[3].Error, proto.ErrInvalidRepo.Error()))
}

func TestDeleteRepositoriesPanic(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t)

	h.EXPECT().Delete(gomock.Any(), "one").
		DoAndReturn(func(context.Context, string) error {
			panic("adapter blew up")
		})
	h.EXPECT().Delete(gomock.Any(), "two").Return(nil)

	got := b.DeleteRepositories(context.TODO(), []string{"one", "two"})
	want := []proto.DeletionResult{
		{Name: "one", Error: "panic: adapter blew up"},
		{Name: "two", Success: true},
	}
	is.Equal(got, want)

	// the dispatcher still gets an envelope back
	h.EXPECT().Delete(gomock.Any(), "one").
		DoAndReturn(func(context.Context, string) error {
			panic("adapter blew up")
		})
	resp := dispatch.New(context.TODO(), b).Dispatch(context.TODO(), proto.Request{
		Action:       proto.ActionDelete,
		Repositories: []string{"one"},
	})
	is.True(resp.Success)
	is.Equal(resp.Results, []proto.DeletionResult{{Name: "one", Error: "panic: adapter blew up"}})
}

func TestDeleteRepositoriesOrder(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t)
	b.cfg.Workers = 4

	names := []string{"r1", "r2", "r3", "r4", "r5", "r6"}
	h.EXPECT().Delete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, name string) error {
			// later names finish first
			time.Sleep(time.Duration(len(names)-int(name[1]-'0')) * 5 * time.Millisecond)
			if name == "r2" {
				return errors.New("denied")
			}
			return nil
		}).Times(len(names))

	got := b.DeleteRepositories(context.TODO(), names)
	is.Equal(len(got), len(names))
	for i, r := range got {
		is.Equal(r.Name, names[i])
		is.Equal(r.Success, r.Name != "r2")
	}
}

func TestRefreshCatalog(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t)
	b.cfg.Host.Owner = "octo"

	remote := []host.RemoteRepository{
		{
			Name:       "fresh",
			URL:        "https://github.com/octo/fresh",
			PushedAt:   fixedNow.Add(-48 * time.Hour).Format(time.RFC3339),
			DiskUsage:  2048,
			Visibility: catalog.VisibilityPublic,
			Languages:  []host.Language{{Size: 10}},
		},
		{
			Name:       "stale",
			URL:        "https://github.com/octo/stale",
			PushedAt:   fixedNow.AddDate(-1, 0, 0).Format(time.RFC3339),
			Visibility: catalog.VisibilityPrivate,
		},
	}
	remote[0].Languages[0].Node.Name = "Go"
	h.EXPECT().List(gomock.Any(), "octo", 100).Return(remote, nil)

	n, err := b.RefreshCatalog(context.TODO())
	is.NoErr(err)
	is.Equal(n, 2)

	repos, err := b.Repositories(context.TODO())
	is.NoErr(err)
	is.Equal(len(repos), 2)
	is.Equal(repos[0].PrimaryLanguage, "Go")
	is.Equal(repos[0].DiskUsageMB, 2.05)
	is.Equal(repos[0].DaysSinceLastPush, 2)
	is.True(!repos[0].Inactive)
	is.Equal(repos[1].PrimaryLanguage, catalog.NoLanguage)
	is.True(repos[1].Inactive)

	s, err := b.Summary(context.TODO())
	is.NoErr(err)
	is.Equal(s.TotalRepos, 2)
	is.Equal(s.InactiveRepos, 1)
	is.Equal(s.Languages, map[string]int{"Go": 1})
}

func TestRefreshCatalogFailureKeepsCatalog(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t, testRepos...)
	h.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, host.ErrToolNotFound)

	_, err := b.RefreshCatalog(context.TODO())
	is.True(errors.Is(err, host.ErrToolNotFound))

	repos, err := b.Repositories(context.TODO())
	is.NoErr(err)
	is.Equal(len(repos), 2)
}

func TestRefreshCatalogShared(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t)

	release := make(chan struct{})
	h.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, int) ([]host.RemoteRepository, error) {
			<-release
			return []host.RemoteRepository{{Name: "only"}}, nil
		}).Times(1)

	errs := make(chan error, 2)
	go func() {
		_, err := b.RefreshCatalog(context.TODO())
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		_, err := b.RefreshCatalog(context.TODO())
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	is.NoErr(<-errs)
	is.NoErr(<-errs)
}

func TestOperations(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBackend(t)

	ops, err := b.Operations(context.TODO(), 10, time.Time{})
	is.NoErr(err)
	is.Equal(len(ops), 0)
	_, err = b.Operation(context.TODO(), "op-1")
	is.True(errors.Is(err, proto.ErrOperationNotFound))
	is.NoErr(b.RecordOperation(context.TODO(), proto.Request{}, proto.Response{}))

	withDatabase(t, b)
	req := proto.Request{Action: proto.ActionDelete, Repositories: []string{"one", "two"}}
	resp := proto.Response{
		Success: true,
		Message: "Successfully processed deletion of 2 repositories",
		Results: []proto.DeletionResult{
			{Name: "one", Success: true},
			{Name: "two", Error: "HTTP 404: Not Found"},
		},
	}
	is.NoErr(b.RecordOperation(context.TODO(), req, resp))

	ops, err = b.Operations(context.TODO(), 0, time.Time{})
	is.NoErr(err)
	is.Equal(len(ops), 1)
	is.Equal(ops[0].Action, proto.ActionDelete)
	is.Equal(ops[0].Repositories, []string{"one", "two"})
	is.Equal(ops[0].Results, resp.Results)
	is.True(ops[0].CreatedAt.Equal(fixedNow))

	op, err := b.Operation(context.TODO(), ops[0].ID)
	is.NoErr(err)
	if diff := cmp.Diff(ops[0], op); diff != "" {
		t.Errorf("Operation() mismatch (-want +got):\n%s", diff)
	}
	_, err = b.Operation(context.TODO(), "missing")
	is.True(errors.Is(err, proto.ErrOperationNotFound))

	n, err := b.PruneOperations(context.TODO(), fixedNow.Add(time.Second))
	is.NoErr(err)
	is.Equal(n, int64(1))
}

func TestReport(t *testing.T) {
	is := is.New(t)
	b, _ := newTestBackend(t)

	_, err := b.Report(context.TODO(), nil)
	is.True(errors.Is(err, proto.ErrCatalogUnavailable))

	b, _ = newTestBackend(t, testRepos...)
	r, err := b.Report(context.TODO(), nil)
	is.NoErr(err)
	is.Equal(r.Summary.TotalRepos, 2)
	is.True(r.GeneratedAt.Equal(fixedNow))

	r, err = b.Report(context.TODO(), []string{"beta", "beta", "ghost"})
	is.NoErr(err)
	is.Equal(r.Summary.TotalRepos, 1)
	is.Equal(r.DeleteCandidates[0].Name, "beta")

	_, err = b.Report(context.TODO(), []string{"ghost"})
	is.True(errors.Is(err, proto.ErrNothingToReport))
}

func TestReady(t *testing.T) {
	is := is.New(t)
	b, h := newTestBackend(t)
	withDatabase(t, b)

	h.EXPECT().Check(gomock.Any()).Return(nil)
	is.NoErr(b.Ready(context.TODO()))

	h.EXPECT().Check(gomock.Any()).Return(host.ErrUnsupportedVersion)
	is.True(errors.Is(b.Ready(context.TODO()), host.ErrUnsupportedVersion))
}

func TestContext(t *testing.T) {
	is := is.New(t)
	is.True(FromContext(context.TODO()) == nil)

	b, _ := newTestBackend(t)
	is.Equal(FromContext(WithContext(context.TODO(), b)), b)
}
