package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/repo-analysis/repokeep/pkg/proto"
)

func TestLoad(t *testing.T) {
	is := is.New(t)
	repos, err := New("testdata/catalog.json").Load(context.TODO())
	is.NoErr(err)
	is.Equal(len(repos), 3)
	is.Equal(repos[0].Name, "old-api")
	is.Equal(repos[0].URL, "https://github.com/octo/old-api")
	is.Equal(repos[0].DiskUsage, int64(2048))
	is.True(repos[0].Inactive)
	is.Equal(repos[1].Description, "")
	is.True(repos[1].IsArchived)
}

func TestLoadUnavailable(t *testing.T) {
	td := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(td, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	for name, path := range map[string]string{
		"missing": filepath.Join(td, "nope.json"),
		"garbage": write("garbage.json", "{{{"),
		"object":  write("object.json", `{"name":"a"}`),
		"null":    write("null.json", "null"),
		"badtype": write("badtype.json", `[{"name": 1}]`),
	} {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			_, err := New(path).Load(context.TODO())
			is.True(errors.Is(err, proto.ErrCatalogUnavailable))
		})
	}
}

func TestLoadReadsFreshEachCall(t *testing.T) {
	is := is.New(t)
	c := New(filepath.Join(t.TempDir(), "catalog.json"))
	is.NoErr(c.Save(context.TODO(), []Repository{{Name: "a"}}))
	repos, err := c.Load(context.TODO())
	is.NoErr(err)
	is.Equal(len(repos), 1)

	is.NoErr(c.Save(context.TODO(), []Repository{{Name: "a"}, {Name: "b"}}))
	repos, err = c.Load(context.TODO())
	is.NoErr(err)
	is.Equal(Names(repos, nil), []string{"a", "b"})
}

func TestSaveEmpty(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "nested", "catalog.json")
	c := New(path)
	is.NoErr(c.Save(context.TODO(), nil))
	bts, err := os.ReadFile(path)
	is.NoErr(err)
	is.Equal(string(bts), "[]")

	entries, err := os.ReadDir(filepath.Dir(path))
	is.NoErr(err)
	is.Equal(len(entries), 1) // no temporary files left behind
}

func TestIndexLastWins(t *testing.T) {
	is := is.New(t)
	idx := Index([]Repository{
		{Name: "a", URL: "first"},
		{Name: "b", URL: "b"},
		{Name: "a", URL: "second"},
	})
	is.Equal(len(idx), 2)
	is.Equal(idx["a"].URL, "second")
}

func TestNamesFilter(t *testing.T) {
	is := is.New(t)
	repos, err := New("testdata/catalog.json").Load(context.TODO())
	is.NoErr(err)
	is.Equal(Names(repos, func(r Repository) bool { return r.Inactive }), []string{"old-api"})
}

func TestDerive(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	r := Repository{DiskUsage: 12345, PushedAt: "2023-06-01T12:00:00Z"}
	r.Derive(now, 180)
	is.Equal(r.DiskUsageMB, 12.35)
	is.Equal(r.DaysSinceLastPush, 366)
	is.True(r.Inactive)
	is.Equal(r.PrimaryLanguage, NoLanguage)

	r = Repository{DiskUsage: 10, PushedAt: "2024-05-31T00:00:00Z", PrimaryLanguage: "Go"}
	r.Derive(now, 180)
	is.Equal(r.DaysSinceLastPush, 1)
	is.True(!r.Inactive)
	is.Equal(r.PrimaryLanguage, "Go")

	// exactly at the threshold is still active
	r = Repository{PushedAt: now.AddDate(0, 0, -180).Format(time.RFC3339)}
	r.Derive(now, 180)
	is.Equal(r.DaysSinceLastPush, 180)
	is.True(!r.Inactive)
}

func TestSummarize(t *testing.T) {
	is := is.New(t)
	repos, err := New("testdata/catalog.json").Load(context.TODO())
	is.NoErr(err)

	s := Summarize(repos)
	is.Equal(s.TotalRepos, 3)
	is.Equal(s.PrivateRepos, 1)
	is.Equal(s.PublicRepos, 2)
	is.Equal(s.ArchivedRepos, 1)
	is.Equal(s.InactiveRepos, 1)
	is.True(s.TotalSizeMB > 2.65 && s.TotalSizeMB < 2.67)
	is.Equal(s.Languages, map[string]int{"Go": 2})
}
