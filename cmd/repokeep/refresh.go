package main

import (
	"github.com/repo-analysis/repokeep/cmd"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/dispatch"
	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/spf13/cobra"
)

func refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "refresh",
		Short:              "Rebuild the repository catalog from GitHub",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			d := dispatch.New(ctx, backend.FromContext(ctx))
			resp := d.DispatchRefresh(ctx, proto.ActionRefresh.String())
			if err := cmd.PrintJSON(c, resp); err != nil {
				return err
			}

			if !resp.Success {
				return cmd.ErrOperationFailed
			}

			return nil
		},
	}
}
