// Package dispatch routes requests to the orchestrators and turns every
// outcome into a response envelope.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/repo-analysis/repokeep/pkg/host"
	"github.com/repo-analysis/repokeep/pkg/proto"
)

// TimestampFormat is the layout of the refresh response timestamp.
const TimestampFormat = "2006-01-02 15:04:05"

// Backend is the set of orchestrators a Dispatcher routes to.
type Backend interface {
	ArchiveRepositories(ctx context.Context, names []string) (proto.ArchiveResult, error)
	DeleteRepositories(ctx context.Context, names []string) []proto.DeletionResult
	RefreshCatalog(ctx context.Context) (int, error)
	RecordOperation(ctx context.Context, req proto.Request, resp proto.Response) error
}

// Dispatcher validates requests and routes them to a Backend.
type Dispatcher struct {
	be     Backend
	logger *log.Logger
	now    func() time.Time
}

// New returns a new Dispatcher.
func New(ctx context.Context, be Backend) *Dispatcher {
	return &Dispatcher{
		be:     be,
		logger: log.FromContext(ctx).WithPrefix("dispatch"),
		now:    time.Now,
	}
}

// Normalize trims the action and the repository names and drops blank names.
// Actions are matched exactly, so the case of the action is kept.
func Normalize(req proto.Request) proto.Request {
	out := proto.Request{
		Action:       proto.Action(strings.TrimSpace(req.Action.String())),
		Repositories: make([]string, 0, len(req.Repositories)),
	}
	for _, name := range req.Repositories {
		name = strings.TrimSpace(name)
		if name != "" {
			out.Repositories = append(out.Repositories, name)
		}
	}

	return out
}

// Validate checks a normalized archive or delete request. It returns an
// error wrapping proto.ErrMissingParameters or proto.ErrUnknownAction.
func Validate(req proto.Request) error {
	if req.Action == "" || len(req.Repositories) == 0 {
		return proto.ErrMissingParameters
	}

	switch req.Action {
	case proto.ActionArchive, proto.ActionDelete:
		return nil
	default:
		return fmt.Errorf("%w: %s", proto.ErrUnknownAction, req.Action)
	}
}

func validateRefresh(act proto.Action) error {
	switch act {
	case "":
		return proto.ErrMissingParameters
	case proto.ActionRefresh:
		return nil
	default:
		return fmt.Errorf("%w: %s", proto.ErrUnknownAction, act)
	}
}

// Dispatch runs an archive or delete request. It always returns a well
// formed response; failures are reported through Success and Message.
func (d *Dispatcher) Dispatch(ctx context.Context, req proto.Request) (resp proto.Response) {
	req = Normalize(req)
	if err := Validate(req); err != nil {
		d.logger.Warn("rejected request", "action", req.Action, "err", err)
		if errors.Is(err, proto.ErrMissingParameters) {
			return proto.Failure("Missing required parameters: action and repositories")
		}
		return proto.Failure("Unknown action: " + req.Action.String())
	}

	defer d.record(ctx, req, &resp)
	defer d.recoverPanic(&resp)

	switch req.Action {
	case proto.ActionArchive:
		return d.archive(ctx, req.Repositories)
	default:
		return d.delete(ctx, req.Repositories)
	}
}

// DispatchRefresh runs a catalog refresh request.
func (d *Dispatcher) DispatchRefresh(ctx context.Context, action string) (resp proto.Response) {
	act := proto.Action(strings.TrimSpace(action))
	if err := validateRefresh(act); err != nil {
		d.logger.Warn("rejected request", "action", act, "err", err)
		if errors.Is(err, proto.ErrMissingParameters) {
			return proto.Failure("Missing required parameter: action")
		}
		return proto.Failure("Unknown action: " + act.String())
	}

	defer d.record(ctx, proto.Request{Action: act}, &resp)
	defer d.recoverPanic(&resp)

	count, err := d.be.RefreshCatalog(ctx)
	if err != nil {
		var exitErr *host.ExitError
		if errors.As(err, &exitErr) {
			return proto.Failure("Error fetching repository data: " + exitErr.Stderr)
		}
		return proto.Failure("Error: " + err.Error())
	}

	return proto.Response{
		Success:   true,
		Message:   fmt.Sprintf("Successfully fetched data for %d repositories", count),
		Count:     &count,
		Timestamp: d.now().Format(TimestampFormat),
	}
}

func (d *Dispatcher) archive(ctx context.Context, names []string) proto.Response {
	res, err := d.be.ArchiveRepositories(ctx, names)
	if err != nil {
		d.logger.Error("archive failed", "err", err)
		return proto.Failure("Error archiving repositories: " + err.Error())
	}

	resp := proto.Response{
		Success:     true,
		Message:     fmt.Sprintf("Successfully archived %d repositories", len(names)),
		ArchivePath: res.Path,
	}
	if len(res.Skipped) > 0 {
		resp.Skipped = res.Skipped
	}

	return resp
}

func (d *Dispatcher) delete(ctx context.Context, names []string) proto.Response {
	results := d.be.DeleteRepositories(ctx, names)
	return proto.Response{
		Success: true,
		Message: fmt.Sprintf("Successfully processed deletion of %d repositories", len(names)),
		Results: results,
	}
}

func (d *Dispatcher) recoverPanic(resp *proto.Response) {
	if r := recover(); r != nil {
		d.logger.Error("recovered from panic", "panic", r)
		*resp = proto.Failure(fmt.Sprintf("Error: %v", r))
	}
}

func (d *Dispatcher) record(ctx context.Context, req proto.Request, resp *proto.Response) {
	if err := d.be.RecordOperation(context.WithoutCancel(ctx), req, *resp); err != nil {
		d.logger.Warn("failed to record operation", "action", req.Action, "err", err)
	}
}
