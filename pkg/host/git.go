package host

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	git "github.com/aymanbagabas/git-module"
)

// Git clones with the git executable. Deletion and listing are delegated to
// the embedded GitHub CLI adapter.
type Git struct {
	*GH
	token string
}

var _ Host = (*Git)(nil)

// Clone implements Host.
func (g *Git) Clone(ctx context.Context, repoURL, dest string) error {
	copts := git.CloneOptions{
		Quiet: true,
		CommandOptions: git.CommandOptions{
			Timeout: -1,
			Context: ctx,
			Envs:    g.envs(repoURL),
		},
	}

	if err := git.Clone(repoURL, dest, copts); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("git clone: %w", ctxErr)
		}
		return fmt.Errorf("git clone: %w", err)
	}

	return nil
}

// Check implements Host. Both git and gh must be usable.
func (g *Git) Check(ctx context.Context) error {
	if _, err := git.BinVersion(); err != nil {
		return fmt.Errorf("%w: git: %w", ErrToolNotFound, err)
	}

	return g.GH.Check(ctx)
}

// envs returns the extra environment of a clone. The token is sent as an
// HTTP authorization header through git's environment based configuration
// so it never shows up in the process arguments. The header is scoped to
// the origin of the clone URL so redirects and submodules on other hosts
// never receive it.
func (g *Git) envs(rawURL string) []string {
	envs := []string{"GIT_TERMINAL_PROMPT=0"}
	if g.token == "" {
		return envs
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return envs
	}

	basic := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + g.token))
	return append(envs,
		"GIT_CONFIG_COUNT=1",
		"GIT_CONFIG_KEY_0=http.https://"+u.Host+"/.extraHeader",
		"GIT_CONFIG_VALUE_0=Authorization: Basic "+basic,
	)
}
