package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when a nil config is passed where one is required.
var ErrNilConfig = errors.New("nil config")

// Host drivers.
const (
	DriverGH    = "gh"
	DriverGit   = "git"
	DriverGoGit = "go-git"
)

// CatalogConfig is the repository catalog configuration.
type CatalogConfig struct {
	// Path is the path to the catalog JSON file.
	Path string `env:"PATH" yaml:"path"`

	// InactiveDays is the number of days without a push after which a
	// repository is considered inactive.
	InactiveDays int `env:"INACTIVE_DAYS" yaml:"inactive_days"`
}

// ArchiveConfig is the archive output configuration.
type ArchiveConfig struct {
	// Dir is the directory where archive files are written.
	Dir string `env:"DIR" yaml:"dir"`

	// ScratchDir is the parent of the per-call scratch directories.
	// If empty, the system temporary directory is used.
	ScratchDir string `env:"SCRATCH_DIR" yaml:"scratch_dir"`
}

// HostConfig is the remote repository host configuration.
type HostConfig struct {
	// Driver selects the host adapter.
	// Valid values are "gh", "git", and "go-git".
	Driver string `env:"DRIVER" yaml:"driver"`

	// GHPath is the path or name of the GitHub CLI executable.
	GHPath string `env:"GH_PATH" yaml:"gh_path"`

	// MinGHVersion is the minimum supported GitHub CLI version.
	MinGHVersion string `env:"MIN_GH_VERSION" yaml:"min_gh_version"`

	// Owner is the account whose repositories are listed on refresh.
	// If empty, the authenticated account is used.
	Owner string `env:"OWNER" yaml:"owner"`

	// Token is the access token handed to the host tool.
	Token string `env:"TOKEN" yaml:"token"`

	// WorkDir is the working directory for host tool invocations.
	WorkDir string `env:"WORK_DIR" yaml:"work_dir"`

	// Timeout bounds every single host call. Zero means no timeout.
	Timeout time.Duration `env:"TIMEOUT" yaml:"timeout"`

	// ListLimit is the maximum number of repositories fetched on refresh.
	ListLimit int `env:"LIST_LIMIT" yaml:"list_limit"`
}

// CORSConfig is the CORS configuration for the HTTP server.
type CORSConfig struct {
	AllowedHeaders []string `env:"ALLOWED_HEADERS" envSeparator:"," yaml:"allowed_headers"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," yaml:"allowed_origins"`
	AllowedMethods []string `env:"ALLOWED_METHODS" envSeparator:"," yaml:"allowed_methods"`
}

// HTTPConfig is the HTTP configuration for the server.
type HTTPConfig struct {
	// ListenAddr is the address on which the HTTP server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// PublicURL is the public URL of the HTTP server.
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`

	// CORS is the CORS configuration.
	CORS CORSConfig `envPrefix:"CORS_" yaml:"cors"`
}

// StatsConfig is the configuration for the stats server.
type StatsConfig struct {
	// ListenAddr is the address on which the stats server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// DBConfig is the database connection configuration.
type DBConfig struct {
	// Driver is the driver for the database.
	Driver string `env:"DRIVER" yaml:"driver"`

	// DataSource is the database data source name.
	DataSource string `env:"DATA_SOURCE" yaml:"data_source"`
}

// JobsConfig is the configuration for cron jobs.
type JobsConfig struct {
	// Refresh is the cron spec of the catalog refresh job.
	// An empty spec disables the job.
	Refresh string `env:"REFRESH" yaml:"refresh"`
}

// Config is the configuration for repokeep.
type Config struct {
	// Name is the name of the instance.
	Name string `env:"NAME" yaml:"name"`

	// Workers is the number of repositories processed concurrently within a
	// batch. 1 means strictly sequential.
	Workers int `env:"WORKERS" yaml:"workers"`

	// Catalog is the repository catalog configuration.
	Catalog CatalogConfig `envPrefix:"CATALOG_" yaml:"catalog"`

	// Archive is the archive output configuration.
	Archive ArchiveConfig `envPrefix:"ARCHIVE_" yaml:"archive"`

	// Host is the remote repository host configuration.
	Host HostConfig `envPrefix:"HOST_" yaml:"host"`

	// HTTP is the configuration for the HTTP server.
	HTTP HTTPConfig `envPrefix:"HTTP_" yaml:"http"`

	// Stats is the configuration for the stats server.
	Stats StatsConfig `envPrefix:"STATS_" yaml:"stats"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// DB is the database configuration.
	DB DBConfig `envPrefix:"DB_" yaml:"db"`

	// Jobs is the configuration for cron jobs
	Jobs JobsConfig `envPrefix:"JOBS_" yaml:"jobs"`

	// DataPath is the path to the directory where repokeep stores its data.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

// IsDebug returns true if repokeep is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("REPOKEEP_DEBUG"))
	return debug
}

// IsVerbose returns true if repokeep is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("REPOKEEP_VERBOSE"))
	return IsDebug() && verbose
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "REPOKEEP_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the default file path and environment variables.
// This also calls Validate() on the config.
func (c *Config) Parse() error {
	if err := c.ParseFile(); err != nil {
		return err
	}

	return c.ParseEnv()
}

// writeConfig writes the configuration to the given file.
func writeConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(newConfigFile(cfg)), 0o600) // nolint: errcheck, gosec
}

// WriteConfig writes the configuration to the default file.
func (c *Config) WriteConfig() error {
	return writeConfig(c, c.ConfigPath())
}

// DefaultDataPath returns the path to the data directory.
// It uses the REPOKEEP_DATA_PATH environment variable if set, otherwise it
// uses "data".
func DefaultDataPath() string {
	dp := os.Getenv("REPOKEEP_DATA_PATH")
	if dp == "" {
		dp = "data"
	}

	return dp
}

// ConfigPath returns the path to the config file.
// REPOKEEP_CONFIG_LOCATION takes precedence when it points to an existing
// file.
func (c *Config) ConfigPath() string { // nolint:revive
	if path := os.Getenv("REPOKEEP_CONFIG_LOCATION"); exist(path) {
		return path
	}

	return filepath.Join(c.DataPath, "config.yaml")
}

func exist(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	return exist(c.ConfigPath())
}

// DefaultConfig returns the default Config. All the path values are relative
// to the data directory.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	return &Config{
		Name:     "repokeep",
		DataPath: DefaultDataPath(),
		Workers:  1,
		Catalog: CatalogConfig{
			Path:         "website_data.json",
			InactiveDays: 180,
		},
		Archive: ArchiveConfig{
			Dir: "archives",
		},
		Host: HostConfig{
			Driver:       DriverGH,
			GHPath:       "gh",
			MinGHVersion: "2.0.0",
			Timeout:      10 * time.Minute,
			ListLimit:    100,
		},
		HTTP: HTTPConfig{
			ListenAddr: ":8080",
			PublicURL:  "http://localhost:8080",
			CORS: CORSConfig{
				AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
				AllowedOrigins: []string{"http://localhost:8080"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			},
		},
		Stats: StatsConfig{
			ListenAddr: "localhost:8081",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DataSource: "repokeep.db" +
				"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		Jobs: JobsConfig{
			Refresh: "@every 6h",
		},
	}
}

// Validate validates the configuration.
// It updates the configuration with absolute paths.
func (c *Config) Validate() error {
	// Use absolute paths
	if !filepath.IsAbs(c.DataPath) {
		dp, err := filepath.Abs(c.DataPath)
		if err != nil {
			return err
		}
		c.DataPath = dp
	}

	c.HTTP.PublicURL = strings.TrimSuffix(c.HTTP.PublicURL, "/")

	for _, p := range []*string{
		&c.Catalog.Path,
		&c.Archive.Dir,
		&c.Archive.ScratchDir,
		&c.Host.WorkDir,
		&c.Log.Path,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.DataPath, *p)
		}
	}

	if strings.HasPrefix(c.DB.Driver, "sqlite") && !filepath.IsAbs(c.DB.DataSource) {
		c.DB.DataSource = filepath.Join(c.DataPath, c.DB.DataSource)
	}

	switch c.Host.Driver {
	case DriverGH, DriverGit, DriverGoGit:
	default:
		return fmt.Errorf("invalid host driver %q", c.Host.Driver)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.Catalog.InactiveDays < 0 {
		return fmt.Errorf("catalog inactive days cannot be negative")
	}

	if c.Host.Timeout < 0 {
		return fmt.Errorf("host timeout cannot be negative")
	}

	if c.Host.ListLimit < 1 {
		return fmt.Errorf("host list limit must be at least 1, got %d", c.Host.ListLimit)
	}

	return nil
}
