// Package log builds the repokeep logger from the configuration.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/repo-analysis/repokeep/pkg/config"
)

var formatters = map[string]log.Formatter{
	"text":   log.TextFormatter,
	"json":   log.JSONFormatter,
	"logfmt": log.LogfmtFormatter,
}

// NewLogger returns the logger described by cfg.Log. It writes to stderr,
// or appends to cfg.Log.Path when set; the returned file is then non nil
// and must be closed by the caller. REPOKEEP_DEBUG lowers the level to
// debug and REPOKEEP_VERBOSE also reports callers.
func NewLogger(cfg *config.Config) (*log.Logger, *os.File, error) {
	if cfg == nil {
		return nil, nil, config.ErrNilConfig
	}

	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           log.InfoLevel,
	}
	if cfg.Log.TimeFormat != "" {
		opts.TimeFormat = cfg.Log.TimeFormat
	}
	if cfg.Log.Format != "" {
		f, ok := formatters[strings.ToLower(cfg.Log.Format)]
		if !ok {
			return nil, nil, fmt.Errorf("unknown log format %q", cfg.Log.Format)
		}
		opts.Formatter = f
	}

	switch {
	case config.IsVerbose():
		opts.ReportCaller = true
		fallthrough
	case config.IsDebug():
		opts.Level = log.DebugLevel
	}

	var (
		out io.Writer = os.Stderr
		f   *os.File
	)
	if cfg.Log.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}

		var err error
		f, err = os.OpenFile(cfg.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	return log.NewWithOptions(out, opts), f, nil
}
