package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/caarlos0/tablewriter"
	"github.com/dustin/go-humanize"
	"github.com/repo-analysis/repokeep/cmd"
	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/catalog"
	"github.com/spf13/cobra"
)

func catalogCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                "catalog",
		Aliases:            []string{"repos"},
		Short:              "Inspect the repository catalog",
		PersistentPreRunE:  cmd.InitBackendContext,
		PersistentPostRunE: cmd.CloseDBContext,
	}

	c.AddCommand(
		catalogListCommand(),
		catalogSummaryCommand(),
		catalogReportCommand(),
	)

	return c
}

func catalogListCommand() *cobra.Command {
	var (
		ojson    bool
		inactive bool
	)

	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the repositories of the catalog",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			repos, err := backend.FromContext(ctx).Repositories(ctx)
			if err != nil {
				return err
			}

			if inactive {
				kept := repos[:0]
				for _, r := range repos {
					if r.Inactive {
						kept = append(kept, r)
					}
				}
				repos = kept
			}

			if ojson {
				return cmd.PrintJSON(c, repos)
			}

			if len(repos) == 0 {
				c.Println("No repositories found")
				return nil
			}

			return tablewriter.Render(
				c.OutOrStdout(),
				repos,
				[]string{"Name", "Visibility", "Language", "Size", "Last Push", "Status"},
				func(r catalog.Repository) ([]string, error) {
					return []string{
						r.Name,
						r.Visibility,
						r.PrimaryLanguage,
						humanize.Bytes(uint64(r.DiskUsage) * 1024), //nolint:gosec
						lastPush(r),
						status(r),
					}, nil
				},
			)
		},
	}

	c.Flags().BoolVar(&ojson, "json", false, "output as JSON")
	c.Flags().BoolVar(&inactive, "inactive", false, "only list inactive repositories")

	return c
}

func catalogReportCommand() *cobra.Command {
	var ojson bool

	c := &cobra.Command{
		Use:   "report [NAME...]",
		Short: "Print a maintenance report of the catalog",
		Long: `Print a markdown maintenance report of the catalog, or of the named
repositories only. The report lists archive candidates, deletion candidates
and active repositories.`,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			r, err := backend.FromContext(ctx).Report(ctx, args)
			if err != nil {
				return err
			}

			if ojson {
				return cmd.PrintJSON(c, r)
			}

			md, err := r.Markdown()
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(c.OutOrStdout(), md)
			return err
		},
	}

	c.Flags().BoolVar(&ojson, "json", false, "output as JSON")

	return c
}

func catalogSummaryCommand() *cobra.Command {
	var ojson bool

	c := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the repository catalog",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			s, err := backend.FromContext(ctx).Summary(ctx)
			if err != nil {
				return err
			}

			if ojson {
				return cmd.PrintJSON(c, s)
			}

			rows := [][2]string{
				{"Total", strconv.Itoa(s.TotalRepos)},
				{"Private", strconv.Itoa(s.PrivateRepos)},
				{"Public", strconv.Itoa(s.PublicRepos)},
				{"Archived", strconv.Itoa(s.ArchivedRepos)},
				{"Inactive", strconv.Itoa(s.InactiveRepos)},
				{"Size", fmt.Sprintf("%.2f MB", s.TotalSizeMB)},
			}

			langs := make([]string, 0, len(s.Languages))
			for l := range s.Languages {
				langs = append(langs, l)
			}
			sort.Slice(langs, func(i, j int) bool {
				if s.Languages[langs[i]] != s.Languages[langs[j]] {
					return s.Languages[langs[i]] > s.Languages[langs[j]]
				}
				return langs[i] < langs[j]
			})
			for _, l := range langs {
				rows = append(rows, [2]string{l, strconv.Itoa(s.Languages[l])})
			}

			return tablewriter.Render(
				c.OutOrStdout(),
				rows,
				[]string{"Repositories", "Count"},
				func(r [2]string) ([]string, error) {
					return r[:], nil
				},
			)
		},
	}

	c.Flags().BoolVar(&ojson, "json", false, "output as JSON")

	return c
}

func lastPush(r catalog.Repository) string {
	t, err := time.Parse(time.RFC3339, r.PushedAt)
	if err != nil {
		return "-"
	}
	return humanize.Time(t)
}

func status(r catalog.Repository) string {
	switch {
	case r.IsArchived:
		return "archived"
	case r.Inactive:
		return "inactive"
	default:
		return "active"
	}
}
