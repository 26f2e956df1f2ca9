package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/caarlos0/duration"
	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/catalog"
	"github.com/repo-analysis/repokeep/pkg/dispatch"
	"github.com/repo-analysis/repokeep/pkg/proto"
)

// maxBodySize limits the size of API request bodies.
const maxBodySize = 1 << 20

type api struct {
	dispatcher *dispatch.Dispatcher
}

// APIController registers the API routes for the web server.
func APIController(ctx context.Context, r *mux.Router) {
	a := &api{
		dispatcher: dispatch.New(ctx, backend.FromContext(ctx)),
	}

	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/repo_manager", a.postRepoManager).Methods(http.MethodPost)
	s.HandleFunc("/archive", a.postAction(proto.ActionArchive)).Methods(http.MethodPost)
	s.HandleFunc("/delete", a.postAction(proto.ActionDelete)).Methods(http.MethodPost)
	s.HandleFunc("/refresh", a.postRefresh).Methods(http.MethodPost)
	s.HandleFunc("/repositories", getRepositories).Methods(http.MethodGet)
	s.HandleFunc("/summary", getSummary).Methods(http.MethodGet)
	s.HandleFunc("/report", postReport).Methods(http.MethodPost)
	s.HandleFunc("/operations", getOperations).Methods(http.MethodGet)
	s.HandleFunc("/operations/{id}", getOperation).Methods(http.MethodGet)
}

// apiRequest is the body of a JSON API request. Repositories is either an
// array of names or a string holding a JSON encoded array.
type apiRequest struct {
	Action       string          `json:"action"`
	Repositories json.RawMessage `json:"repositories"`
}

func (a *api) postRepoManager(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		renderError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	// Batches keep running when the client goes away.
	ctx := context.WithoutCancel(r.Context())
	renderJSON(w, http.StatusOK, a.dispatcher.Dispatch(ctx, req))
}

func (a *api) postAction(action proto.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseRequest(r)
		if err != nil {
			renderError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}

		req.Action = action
		ctx := context.WithoutCancel(r.Context())
		renderJSON(w, http.StatusOK, a.dispatcher.Dispatch(ctx, req))
	}
}

func (a *api) postRefresh(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		renderError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	ctx := context.WithoutCancel(r.Context())
	renderJSON(w, http.StatusOK, a.dispatcher.DispatchRefresh(ctx, req.Action.String()))
}

func getRepositories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	repos, err := backend.FromContext(ctx).Repositories(ctx)
	if err != nil {
		log.FromContext(ctx).Error("failed to load catalog", "err", err)
		renderError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	renderJSON(w, http.StatusOK, repos)
}

func getSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := backend.FromContext(ctx).Summary(ctx)
	if err != nil {
		log.FromContext(ctx).Error("failed to load catalog", "err", err)
		renderError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	renderJSON(w, http.StatusOK, summary)
}

// reportRequest selects the repositories of a report. Selected names are
// only used when AnalyzeAll is false.
type reportRequest struct {
	SelectedRepositories []string `json:"selectedRepositories"`
	AnalyzeAll           *bool    `json:"analyzeAll"`
}

type reportMetadata struct {
	GeneratedAt     string `json:"generatedAt"`
	RepositoryCount int    `json:"repositoryCount"`
	AnalyzedCount   int    `json:"analyzedCount"`
	InactiveCount   int    `json:"inactiveCount"`
}

type reportResponse struct {
	Success  bool           `json:"success"`
	Report   string         `json:"report"`
	Metadata reportMetadata `json:"metadata"`
}

func postReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var body reportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	var names []string
	if body.AnalyzeAll != nil && !*body.AnalyzeAll {
		names = body.SelectedRepositories
	}

	report, err := backend.FromContext(ctx).Report(ctx, names)
	switch {
	case errors.Is(err, proto.ErrNothingToReport):
		renderError(w, http.StatusBadRequest, "No repositories found to analyze")
		return
	case err != nil:
		log.FromContext(ctx).Error("failed to build report", "err", err)
		renderError(w, http.StatusInternalServerError, "Error fetching repository data: "+err.Error())
		return
	}

	md, err := report.Markdown()
	if err != nil {
		log.FromContext(ctx).Error("failed to render report", "err", err)
		renderError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	renderJSON(w, http.StatusOK, reportResponse{
		Success: true,
		Report:  md,
		Metadata: reportMetadata{
			GeneratedAt:     report.GeneratedAt.Format(catalog.ReportTimeFormat),
			RepositoryCount: report.Summary.TotalRepos,
			AnalyzedCount:   report.Summary.TotalRepos,
			InactiveCount:   report.Summary.InactiveRepos,
		},
	})
}

func getOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit := backend.DefaultHistoryLimit
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			renderError(w, http.StatusBadRequest, "Invalid limit: "+v)
			return
		}
		limit = n
	}

	var since time.Time
	if v := query.Get("since"); v != "" {
		d, err := duration.Parse(v)
		if err != nil {
			renderError(w, http.StatusBadRequest, "Invalid since: "+v)
			return
		}
		since = time.Now().Add(-d)
	}

	ops, err := backend.FromContext(ctx).Operations(ctx, limit, since)
	if err != nil {
		log.FromContext(ctx).Error("failed to load operations", "err", err)
		renderError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	renderJSON(w, http.StatusOK, ops)
}

func getOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	op, err := backend.FromContext(ctx).Operation(ctx, id)
	if errors.Is(err, proto.ErrOperationNotFound) {
		renderError(w, http.StatusNotFound, "Operation not found: "+id)
		return
	}
	if err != nil {
		log.FromContext(ctx).Error("failed to load operation", "id", id, "err", err)
		renderError(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	renderJSON(w, http.StatusOK, op)
}

// parseRequest reads an action and repository names from a JSON or form
// encoded body. Repositories that cannot be decoded count as none.
func parseRequest(r *http.Request) (proto.Request, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body apiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			if errors.Is(err, io.EOF) {
				return proto.Request{}, errors.New("empty body")
			}
			return proto.Request{}, err
		}

		return proto.Request{
			Action:       proto.Action(body.Action),
			Repositories: decodeNames(body.Repositories),
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return proto.Request{}, err
	}

	return proto.Request{
		Action:       proto.Action(r.FormValue("action")),
		Repositories: proto.ParseRepositories(r.FormValue("repositories")),
	}, nil
}

func decodeNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return proto.ParseRepositories(s)
	}

	return nil
}
