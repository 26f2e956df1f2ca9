// Package archive writes the zip files produced by the archive operation.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mholt/archives"
)

const (
	// Prefix is the file name prefix of every archive.
	Prefix = "github_repos_archive_"
	// Ext is the archive file extension.
	Ext = ".zip"
	// TimeFormat is the layout of the timestamp embedded in file names.
	TimeFormat = "20060102_150405"
)

// maxSuffix bounds the attempts at finding a free file name.
const maxSuffix = 1000

// Filename returns the archive file name for the given time, in UTC.
func Filename(t time.Time) string {
	return Prefix + t.UTC().Format(TimeFormat) + Ext
}

// IsArchiveName reports whether name is the base name of an archive file.
func IsArchiveName(name string) bool {
	return name == filepath.Base(name) &&
		strings.HasPrefix(name, Prefix) &&
		strings.HasSuffix(name, Ext)
}

// Create creates a new, empty archive file in dir named after t. The
// directory is created if needed. If another archive with the same name
// exists, "_1", "_2", ... is appended before the extension. The file is
// opened exclusively, so concurrent callers never share a file.
func Create(dir string, t time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	base := strings.TrimSuffix(Filename(t), Ext)
	for i := 0; i < maxSuffix; i++ {
		name := base + Ext
		if i > 0 {
			name = base + "_" + strconv.Itoa(i) + Ext
		}

		f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create archive file: %w", err)
		}
	}

	return nil, fmt.Errorf("create archive file: no free name for %s", base)
}

// Write writes a zip archive of the named directories under root to w.
// Each directory becomes a top level entry of the same name. An empty list
// produces a valid empty archive.
func Write(ctx context.Context, w io.Writer, root string, names []string) error {
	mapping := make(map[string]string, len(names))
	for _, name := range names {
		mapping[filepath.Join(root, name)] = filepath.ToSlash(name)
	}

	files, err := archives.FilesFromDisk(ctx, nil, mapping)
	if err != nil {
		return fmt.Errorf("read files from disk: %w", err)
	}

	format := archives.Zip{
		Compression:          zip.Deflate,
		SelectiveCompression: true,
	}
	if err := format.Archive(ctx, w, files); err != nil {
		return fmt.Errorf("write zip: %w", err)
	}

	return nil
}
