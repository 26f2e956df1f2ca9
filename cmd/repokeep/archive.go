package main

import (
	"github.com/repo-analysis/repokeep/cmd"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/dispatch"
	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/spf13/cobra"
)

func archiveCommand() *cobra.Command {
	var sel selection

	c := &cobra.Command{
		Use:                "archive [NAMES]",
		Short:              "Clone repositories and package them into a zip archive",
		Long:               "Clone the given comma separated repositories and package them, without version control metadata, into a timestamped zip archive.",
		Example:            "  repokeep archive api,website\n  repokeep archive --inactive",
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, args []string) error {
			return runAction(c, proto.ActionArchive, &sel, args)
		},
	}
	sel.register(c)

	return c
}

func deleteCommand() *cobra.Command {
	var sel selection

	c := &cobra.Command{
		Use:                "delete [NAMES]",
		Aliases:            []string{"rm"},
		Short:              "Delete repositories on GitHub",
		Long:               "Permanently delete the given comma separated repositories on GitHub. Nothing is rolled back when a deletion fails.",
		Example:            "  repokeep delete old-api,scratch",
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, args []string) error {
			return runAction(c, proto.ActionDelete, &sel, args)
		},
	}
	sel.register(c)

	return c
}

// runAction dispatches action for the selected names and prints the
// response envelope.
func runAction(c *cobra.Command, action proto.Action, sel *selection, args []string) error {
	ctx := c.Context()
	names, err := sel.names(c, args)
	if err != nil {
		return err
	}

	d := dispatch.New(ctx, backend.FromContext(ctx))
	resp := d.Dispatch(ctx, proto.Request{Action: action, Repositories: names})
	if err := cmd.PrintJSON(c, resp); err != nil {
		return err
	}

	if !resp.Success {
		return cmd.ErrOperationFailed
	}

	return nil
}
