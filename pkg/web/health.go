package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/repo-analysis/repokeep/pkg/backend"
)

type readiness struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthController registers the health check routes for the web server.
func HealthController(_ context.Context, r *mux.Router) {
	r.HandleFunc("/livez", getLiveness).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", getReadiness).Methods(http.MethodGet, http.MethodHead)
}

func getLiveness(w http.ResponseWriter, _ *http.Request) {
	renderStatus(http.StatusOK)(w, nil)
}

// getReadiness reports whether the host tool and the database can serve
// requests.
func getReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	if be == nil {
		renderJSON(w, http.StatusServiceUnavailable, readiness{Status: "unavailable", Error: "backend not configured"})
		return
	}

	if err := be.Ready(ctx); err != nil {
		log.FromContext(ctx).Warn("not ready", "err", err)
		renderJSON(w, http.StatusServiceUnavailable, readiness{Status: "unavailable", Error: err.Error()})
		return
	}

	renderJSON(w, http.StatusOK, readiness{Status: "ok"})
}
