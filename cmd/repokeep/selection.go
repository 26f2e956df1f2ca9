package main

import (
	"strings"

	"github.com/repo-analysis/repokeep/pkg/backend"
	"github.com/repo-analysis/repokeep/pkg/catalog"
	"github.com/repo-analysis/repokeep/pkg/utils"
	"github.com/spf13/cobra"
)

// selection holds the flags that add catalog repositories to a command's
// explicit names.
type selection struct {
	inactive bool
	match    string
}

func (s *selection) register(c *cobra.Command) {
	c.Flags().BoolVar(&s.inactive, "inactive", false, "include every inactive repository of the catalog")
	c.Flags().StringVar(&s.match, "match", "", "include the catalog repositories matching a glob pattern")
}

// names returns the comma separated names given as arguments followed by
// the catalog repositories selected by the flags, without duplicates.
func (s *selection) names(c *cobra.Command, args []string) ([]string, error) {
	names := utils.SplitNames(strings.Join(args, ","))
	if !s.inactive && s.match == "" {
		return names, nil
	}

	ctx := c.Context()
	repos, err := backend.FromContext(ctx).Repositories(ctx)
	if err != nil {
		return nil, err
	}

	if s.inactive {
		names = utils.AppendUnique(names, catalog.Names(repos, func(r catalog.Repository) bool {
			return r.Inactive
		})...)
	}

	if s.match != "" {
		matched, err := utils.MatchNames(s.match, catalog.Names(repos, nil))
		if err != nil {
			return nil, err
		}
		names = utils.AppendUnique(names, matched...)
	}

	return names, nil
}
