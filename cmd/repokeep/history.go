package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/caarlos0/tablewriter"
	"github.com/dustin/go-humanize"
	"github.com/repo-analysis/repokeep/cmd"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/proto"
	"github.com/spf13/cobra"
)

func historyCommand() *cobra.Command {
	var (
		ojson bool
		limit int
		since string
	)

	c := &cobra.Command{
		Use:                "history",
		Short:              "Show the recorded operations",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			var from time.Time
			if since != "" {
				d, err := duration.Parse(since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				from = time.Now().Add(-d)
			}

			ops, err := backend.FromContext(ctx).Operations(ctx, limit, from)
			if err != nil {
				return err
			}

			if ojson {
				return cmd.PrintJSON(c, ops)
			}

			if len(ops) == 0 {
				c.Println("No operations found")
				return nil
			}

			return tablewriter.Render(
				c.OutOrStdout(),
				ops,
				[]string{"ID", "Action", "Repositories", "Result", "Message", "When"},
				func(op proto.Operation) ([]string, error) {
					result := "ok"
					if !op.Success {
						result = "failed"
					}
					return []string{
						shortID(op.ID),
						op.Action.String(),
						strings.Join(op.Repositories, ","),
						result,
						op.Message,
						humanize.Time(op.CreatedAt),
					}, nil
				},
			)
		},
	}

	c.Flags().BoolVar(&ojson, "json", false, "output as JSON")
	c.Flags().IntVarP(&limit, "limit", "n", backend.DefaultHistoryLimit, "maximum number of operations to show")
	c.Flags().StringVar(&since, "since", "", "only show operations newer than a duration, e.g. 2w or 36h")

	c.AddCommand(
		historyShowCommand(),
		historyPruneCommand(),
	)

	return c
}

func historyShowCommand() *cobra.Command {
	var ojson bool

	c := &cobra.Command{
		Use:   "show ID",
		Short: "Show a recorded operation and its per-repository results",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			op, err := backend.FromContext(ctx).Operation(ctx, args[0])
			if err != nil {
				return err
			}

			if ojson {
				return cmd.PrintJSON(c, op)
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", op.ID)
			fmt.Fprintf(out, "Action:   %s\n", op.Action)
			fmt.Fprintf(out, "When:     %s\n", op.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Message:  %s\n", op.Message)
			if op.ArchivePath != "" {
				fmt.Fprintf(out, "Archive:  %s\n", op.ArchivePath)
			}
			if len(op.Results) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			return tablewriter.Render(
				out,
				op.Results,
				[]string{"Repository", "Result", "Error"},
				func(r proto.DeletionResult) ([]string, error) {
					result := "ok"
					if !r.Success {
						result = "failed"
					}
					return []string{r.Name, result, r.Error}, nil
				},
			)
		},
	}

	c.Flags().BoolVar(&ojson, "json", false, "output as JSON")

	return c
}

func historyPruneCommand() *cobra.Command {
	var olderThan string

	c := &cobra.Command{
		Use:   "prune",
		Short: "Delete old operations from the history",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			d, err := duration.Parse(olderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than: %w", err)
			}

			n, err := backend.FromContext(ctx).PruneOperations(ctx, time.Now().Add(-d))
			if err != nil {
				return err
			}

			c.Printf("Deleted %d operations\n", n)
			return nil
		},
	}

	c.Flags().StringVar(&olderThan, "older-than", "90d", "delete operations older than this duration")

	return c
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
