package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/resourcecache/auth"
	"github.com/jonwraymond/resourcecache/key"
)

func newUsersCmd(c *cli) *cobra.Command {
	var (
		refresh   bool
		withEmail bool
		team      string
	)

	cmd := &cobra.Command{
		Use:     "users",
		Short:   "List users",
		GroupID: GroupData,
		Args:    cobra.NoArgs,
		Example: `  resourcectl users                 # All users
  resourcectl users --team core     # Members of team core
  resourcectl users --email         # Include email addresses
  resourcectl users --refresh       # Bypass the cache`,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			a := c.app
			if err := auth.Require(c.ctx, a.authz, resourceUsers, auth.ActionRead); err != nil {
				return err
			}

			k := key.All[string]()
			if team != "" {
				k = key.FromAlias[string](key.Alias{Name: aliasTeam, Params: team})
			}
			var includes []string
			if withEmail {
				includes = append(includes, includeEmail)
			}

			load := a.users.Load
			if refresh {
				load = a.users.Refresh
			}
			if err := load(c.ctx, k, includes...); err != nil {
				return err
			}

			users := a.users.GetMany(k)
			if c.jsonOut {
				return c.printJSON(cmd.OutOrStdout(), users)
			}
			return printUsers(cmd.OutOrStdout(), users)
		}),
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Fetch even if cached")
	cmd.Flags().BoolVarP(&withEmail, "email", "e", false, "Include email addresses")
	cmd.Flags().StringVarP(&team, "team", "t", "", "Only members of this team")

	return cmd
}

func newUserCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "user <id>",
		Short:   "Show one user",
		GroupID: GroupData,
		Args:    cobra.ExactArgs(1),
		Example: `  resourcectl user alice`,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			a := c.app
			if err := auth.Require(c.ctx, a.authz, resourceUsers, auth.ActionRead); err != nil {
				return err
			}

			u, err := a.users.LoadValue(c.ctx, args[0], includeEmail)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(cmd.OutOrStdout(), u)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:     %s\n", u.ID)
			fmt.Fprintf(w, "Name:   %s\n", u.Name)
			fmt.Fprintf(w, "Team:   %s\n", orDash(u.Team))
			fmt.Fprintf(w, "Email:  %s\n", orDash(u.Email))
			return nil
		}),
	}
}

func newRenameCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <id> <name>",
		Short:   "Rename a user",
		GroupID: GroupData,
		Args:    cobra.ExactArgs(2),
		Example: `  resourcectl rename alice "Alice Liddell" --token $(resourcectl token --role admin)`,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			u, err := c.app.renameUser(c.ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", u.ID, u.Name)
			return nil
		}),
	}
}
