package config

import (
	"bytes"
	"text/template"
)

var configFileTmpl = template.Must(template.New("config").Parse(`# repokeep configuration

# The name of this instance.
name: "{{ .Name }}"

# Number of repositories processed concurrently within one batch.
# 1 keeps every batch strictly sequential.
workers: {{ .Workers }}

# Logging configuration.
log:
  # Log format to use. Valid values are "json", "logfmt", and "text".
  format: "{{ .Log.Format }}"
  # Time format for the log "timestamp" field.
  # Should be described in Golang's time format.
  time_format: "{{ .Log.TimeFormat }}"
  # Path to the log file. Leave empty to write to stderr.
  #path: "{{ .Log.Path }}"

# The repository catalog.
catalog:
  # Path to the catalog JSON file produced by "repokeep refresh".
  path: "{{ .Catalog.Path }}"
  # Days without a push after which a repository counts as inactive.
  inactive_days: {{ .Catalog.InactiveDays }}

# Archive output.
archive:
  # Directory where archive zip files are written.
  dir: "{{ .Archive.Dir }}"
  # Parent directory for per-call scratch space.
  # Leave empty to use the system temporary directory.
  #scratch_dir: "{{ .Archive.ScratchDir }}"

# The remote repository host.
host:
  # Adapter used for clone, delete, and list operations.
  # Valid values are "gh", "git", and "go-git". Listing and deleting always
  # go through the GitHub CLI.
  driver: "{{ .Host.Driver }}"
  # Path or name of the GitHub CLI executable.
  gh_path: "{{ .Host.GHPath }}"
  # Minimum supported GitHub CLI version.
  min_gh_version: "{{ .Host.MinGHVersion }}"
  # Account whose repositories are listed. Empty means the authenticated user.
  owner: "{{ .Host.Owner }}"
  # Access token handed to the host tool. Prefer REPOKEEP_HOST_TOKEN.
  #token: ""
  # Working directory for host tool invocations.
  #work_dir: "{{ .Host.WorkDir }}"
  # Timeout of a single clone, delete, or list call. 0 disables it.
  timeout: "{{ .Host.Timeout }}"
  # Maximum number of repositories fetched on refresh.
  list_limit: {{ .Host.ListLimit }}

# The HTTP server configuration.
http:
  # The address on which the HTTP server will listen.
  listen_addr: "{{ .HTTP.ListenAddr }}"

  # The public URL of the HTTP server.
  public_url: "{{ .HTTP.PublicURL }}"

  # Cross-origin settings for the web front end.
  cors:
    allowed_headers:{{ range .HTTP.CORS.AllowedHeaders }}
      - "{{ . }}"{{ end }}
    allowed_origins:{{ range .HTTP.CORS.AllowedOrigins }}
      - "{{ . }}"{{ end }}
    allowed_methods:{{ range .HTTP.CORS.AllowedMethods }}
      - "{{ . }}"{{ end }}

# The stats server configuration.
stats:
  # The address on which the stats server will listen.
  listen_addr: "{{ .Stats.ListenAddr }}"

# The database configuration.
db:
  # The database driver to use.
  # Valid values are "sqlite" and "postgres".
  driver: "{{ .DB.Driver }}"
  # The database data source name.
  # This is driver specific and can be a file path or connection string.
  data_source: "{{ .DB.DataSource }}"

# Cron jobs.
jobs:
  # Catalog refresh schedule. Leave empty to disable.
  refresh: "{{ .Jobs.Refresh }}"
`))

func newConfigFile(cfg *Config) string {
	var b bytes.Buffer
	configFileTmpl.Execute(&b, cfg) // nolint: errcheck
	return b.String()
}
