package host

import (
	"context"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GoGit clones in process with go-git and needs no git executable.
// Deletion and listing are delegated to the embedded GitHub CLI adapter.
type GoGit struct {
	*GH
	token string
}

var _ Host = (*GoGit)(nil)

// Clone implements Host.
func (g *GoGit) Clone(ctx context.Context, url, dest string) error {
	var auth transport.AuthMethod
	if g.token != "" {
		auth = &githttp.BasicAuth{
			Username: "x-access-token",
			Password: g.token,
		}
	}

	if _, err := gogit.PlainCloneContext(ctx, dest, false, &gogit.CloneOptions{
		URL:  url,
		Auth: auth,
	}); err != nil {
		return fmt.Errorf("go-git clone: %w", err)
	}

	return nil
}
