package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-version"
)

// waitDelay bounds how long a cancelled gh invocation may hold its output
// pipes open.
const waitDelay = time.Second

// listFields are the repository fields requested from "gh repo list".
var listFields = []string{
	"name",
	"description",
	"url",
	"createdAt",
	"updatedAt",
	"pushedAt",
	"isArchived",
	"diskUsage",
	"visibility",
	"languages",
	"defaultBranchRef",
}

// Variables the GitHub CLI reads credentials from. They are never inherited
// from the process environment.
var tokenEnvs = []string{"GH_TOKEN", "GITHUB_TOKEN", "GH_ENTERPRISE_TOKEN", "GITHUB_ENTERPRISE_TOKEN"}

var ghVersionRe = regexp.MustCompile(`gh version (\S+)`)

// Options configures the GitHub CLI adapter.
type Options struct {
	// Path is the path or name of the gh executable.
	Path string
	// Token is passed to gh as GH_TOKEN when set.
	Token string
	// WorkDir is the working directory of every gh invocation.
	WorkDir string
	// MinVersion is the minimum gh version accepted by Check.
	MinVersion string
	// Logger receives debug output. Optional.
	Logger *log.Logger
}

// GH is a Host backed by the GitHub CLI.
type GH struct {
	path    string
	token   string
	workDir string
	min     *version.Version
	logger  *log.Logger
}

var _ Host = (*GH)(nil)

// NewGH returns a GitHub CLI adapter.
func NewGH(opts Options) (*GH, error) {
	g := &GH{
		path:    opts.Path,
		token:   opts.Token,
		workDir: opts.WorkDir,
		logger:  opts.Logger,
	}
	if g.path == "" {
		g.path = "gh"
	}
	if g.logger == nil {
		g.logger = log.Default().WithPrefix("host")
	}
	if opts.MinVersion != "" {
		v, err := version.NewVersion(opts.MinVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum gh version %q: %w", opts.MinVersion, err)
		}
		g.min = v
	}

	return g, nil
}

// Clone implements Host.
func (g *GH) Clone(ctx context.Context, url, dest string) error {
	_, err := g.run(ctx, "repo", "clone", url, dest)
	return err
}

// Delete implements Host.
func (g *GH) Delete(ctx context.Context, name string) error {
	_, err := g.run(ctx, "repo", "delete", name, "--yes")
	return err
}

// List implements Host.
func (g *GH) List(ctx context.Context, owner string, limit int) ([]RemoteRepository, error) {
	args := []string{"repo", "list"}
	if owner != "" {
		args = append(args, owner)
	}
	args = append(args, "--limit", strconv.Itoa(limit), "--json", strings.Join(listFields, ","))

	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var repos []RemoteRepository
	if err := json.Unmarshal(out, &repos); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableOutput, err)
	}

	return repos, nil
}

// Check implements Host. It verifies gh can be executed and, when a minimum
// version is configured, that it is recent enough.
func (g *GH) Check(ctx context.Context) error {
	v, err := g.Version(ctx)
	if err != nil {
		return err
	}

	if g.min != nil && v.LessThan(g.min) {
		return fmt.Errorf("%w: gh %s is older than %s", ErrUnsupportedVersion, v, g.min)
	}

	return nil
}

// Version returns the version of the gh executable.
func (g *GH) Version(ctx context.Context) (*version.Version, error) {
	out, err := g.run(ctx, "--version")
	if err != nil {
		return nil, err
	}

	m := ghVersionRe.FindSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnparseableOutput, firstLine(out))
	}

	v, err := version.NewVersion(string(m[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableOutput, err)
	}

	return v, nil
}

// run executes gh with the given arguments and returns its standard output.
func (g *GH) run(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.path, args...) //nolint:gosec
	cmd.Dir = g.workDir
	cmd.Env = g.environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	g.logger.Debug("running gh", "args", args)
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, g.path, err)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("gh %s: %w", args[0], ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Args:   append([]string{g.path}, args...),
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}

		return nil, fmt.Errorf("run gh: %w", err)
	}

	return stdout.Bytes(), nil
}

// environ returns the environment of a gh invocation: the process
// environment without credential variables, plus the configured token.
func (g *GH) environ() []string {
	envs := make([]string, 0, len(os.Environ())+4)
	for _, e := range os.Environ() {
		if isTokenEnv(e) {
			continue
		}
		envs = append(envs, e)
	}

	envs = append(envs,
		"GH_PROMPT_DISABLED=1",
		"GH_NO_UPDATE_NOTIFIER=1",
		"NO_COLOR=1",
	)
	if g.token != "" {
		envs = append(envs, "GH_TOKEN="+g.token)
	}

	return envs
}

func isTokenEnv(e string) bool {
	for _, name := range tokenEnvs {
		if strings.HasPrefix(e, name+"=") {
			return true
		}
	}

	return false
}

func firstLine(b []byte) string {
	line, _, _ := bytes.Cut(bytes.TrimSpace(b), []byte("\n"))
	return string(line)
}
