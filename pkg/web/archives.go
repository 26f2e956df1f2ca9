package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/repo-analysis/repokeep/pkg/archive"
	"github.com/repo-analysis/repokeep/pkg/config"
)

// ArchiveController registers the archive download route.
func ArchiveController(_ context.Context, r *mux.Router) {
	r.HandleFunc("/archives/{file}", getArchive).Methods(http.MethodGet, http.MethodHead)
}

// getArchive serves an archive file. Only base names of archive files are
// accepted, so nothing outside the archive directory can be read.
func getArchive(w http.ResponseWriter, r *http.Request) {
	cfg := config.FromContext(r.Context())
	file := mux.Vars(r)["file"]
	if cfg == nil || !archive.IsArchiveName(file) {
		renderNotFound(w, r)
		return
	}

	path := filepath.Join(cfg.Archive.Dir, file)
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		renderNotFound(w, r)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	http.ServeFile(w, r, path)
}
