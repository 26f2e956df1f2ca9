package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseEnv(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	is.NoErr(os.Setenv("REPOKEEP_DATA_PATH", td))
	is.NoErr(os.Setenv("REPOKEEP_WORKERS", "4"))
	is.NoErr(os.Setenv("REPOKEEP_HOST_DRIVER", "git"))
	is.NoErr(os.Setenv("REPOKEEP_HOST_TIMEOUT", "1m"))
	is.NoErr(os.Setenv("REPOKEEP_CATALOG_PATH", "repos.json"))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("REPOKEEP_DATA_PATH"))
		is.NoErr(os.Unsetenv("REPOKEEP_WORKERS"))
		is.NoErr(os.Unsetenv("REPOKEEP_HOST_DRIVER"))
		is.NoErr(os.Unsetenv("REPOKEEP_HOST_TIMEOUT"))
		is.NoErr(os.Unsetenv("REPOKEEP_CATALOG_PATH"))
	})
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.DataPath, td)
	is.Equal(cfg.Workers, 4)
	is.Equal(cfg.Host.Driver, DriverGit)
	is.Equal(cfg.Host.Timeout, time.Minute)
	is.Equal(cfg.Catalog.Path, filepath.Join(td, "repos.json"))
	is.Equal(cfg.Archive.Dir, filepath.Join(td, "archives"))
	is.Equal(cfg.DB.DataSource, filepath.Join(td, "repokeep.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"))
}

func TestWriteAndParseConfig(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataPath = td
	cfg.Name = "written"
	cfg.Workers = 2
	is.NoErr(cfg.WriteConfig())
	is.True(cfg.Exist())

	parsed := DefaultConfig()
	parsed.DataPath = td
	is.NoErr(parsed.Parse())
	is.Equal(parsed.Name, "written")
	is.Equal(parsed.Workers, 2)
	is.Equal(parsed.Host.Timeout, 10*time.Minute)
	is.Equal(parsed.Host.ListLimit, 100)
	is.Equal(parsed.HTTP.CORS.AllowedMethods, []string{"GET", "POST", "OPTIONS"})
	is.Equal(parsed.Catalog.Path, filepath.Join(td, "website_data.json"))
}

func TestCustomConfigLocation(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("REPOKEEP_CONFIG_LOCATION"))
		is.NoErr(os.Unsetenv("REPOKEEP_DATA_PATH"))
	})

	// Test that we get data from the custom file location, and not from the data dir.
	is.NoErr(os.Setenv("REPOKEEP_CONFIG_LOCATION", "testdata/config.yaml"))
	is.NoErr(os.Setenv("REPOKEEP_DATA_PATH", td))
	cfg := DefaultConfig()
	is.NoErr(cfg.Parse())
	is.Equal(cfg.Name, "Test instance")
	is.Equal(cfg.Workers, 3)
	is.Equal(cfg.Catalog.InactiveDays, 90)
	is.Equal(cfg.Host.Driver, DriverGoGit)
	is.Equal(cfg.Host.Timeout, 30*time.Second)
	is.Equal(cfg.Catalog.Path, filepath.Join(td, "catalog.json"))

	// If the custom config location doesn't exist, default to datapath config.
	is.NoErr(os.Setenv("REPOKEEP_CONFIG_LOCATION", "testdata/config_nonexistent.yaml"))
	cfg = DefaultConfig()
	is.Equal(cfg.ConfigPath(), filepath.Join(td, "config.yaml"))
}

func TestParseCORSHeaders(t *testing.T) {
	is := is.New(t)
	is.NoErr(os.Setenv("REPOKEEP_HTTP_CORS_ALLOWED_ORIGINS", "http://example.com,https://example.com"))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("REPOKEEP_HTTP_CORS_ALLOWED_ORIGINS"))
	})
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.HTTP.CORS.AllowedOrigins, []string{
		"http://example.com",
		"https://example.com",
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"driver":     func(c *Config) { c.Host.Driver = "svn" },
		"workers":    func(c *Config) { c.Workers = 0 },
		"inactive":   func(c *Config) { c.Catalog.InactiveDays = -1 },
		"timeout":    func(c *Config) { c.Host.Timeout = -time.Second },
		"list limit": func(c *Config) { c.Host.ListLimit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			cfg := DefaultConfig()
			cfg.DataPath = t.TempDir()
			mutate(cfg)
			is.True(cfg.Validate() != nil)
		})
	}

	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = "relative"
	is.NoErr(cfg.Validate())
	is.True(filepath.IsAbs(cfg.DataPath))
	is.True(filepath.IsAbs(cfg.Archive.Dir))
	is.Equal(cfg.Archive.ScratchDir, "")
}

func TestContext(t *testing.T) {
	is := is.New(t)
	is.True(FromContext(context.TODO()) == nil)

	cfg := DefaultConfig()
	ctx := WithContext(context.TODO(), cfg)
	is.Equal(FromContext(ctx), cfg)
}

func TestNewConfigFile(t *testing.T) {
	is := is.New(t)
	for _, cfg := range []*Config{nil, DefaultConfig(), {}} {
		s := newConfigFile(cfg)
		is.True(strings.HasPrefix(s, "# repokeep configuration"))
	}

	s := newConfigFile(DefaultConfig())
	is.True(strings.Contains(s, `path: "website_data.json"`))
	is.True(strings.Contains(s, "inactive_days: 180"))
}
