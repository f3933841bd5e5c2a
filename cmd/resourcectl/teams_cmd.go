package main

import (
	"github.com/spf13/cobra"

	"github.com/jonwraymond/resourcecache/auth"
	"github.com/jonwraymond/resourcecache/key"
)

func newTeamsCmd(c *cli) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:     "teams",
		Short:   "List teams with their members",
		GroupID: GroupData,
		Args:    cobra.NoArgs,
		Example: `  resourcectl teams
  resourcectl teams --refresh`,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			a := c.app
			if err := auth.Require(c.ctx, a.authz, resourceTeams, auth.ActionRead); err != nil {
				return err
			}

			// Outdated users outdate teams through the sync link, and the
			// team load preloads users again.
			if refresh {
				if err := a.users.MarkOutdated(c.ctx, key.All[string]()); err != nil {
					return err
				}
			}
			teams, err := a.teams.LoadAll(c.ctx)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(cmd.OutOrStdout(), teams)
			}
			return printTeams(cmd.OutOrStdout(), teams)
		}),
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Fetch even if cached")

	return cmd
}
