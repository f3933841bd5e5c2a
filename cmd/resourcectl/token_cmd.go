package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/resourcecache/auth"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		subject string
		roles   []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue a session token",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Issue a session token signed with auth.signing_key.

Pass the token to other commands with --token or RESOURCECTL_TOKEN.`,
		Example: `  resourcectl token --sub alice --role admin
  export RESOURCECTL_TOKEN=$(resourcectl token --role viewer --ttl 8h)`,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			a := c.app
			signingKey, err := a.cfg.SigningKey(c.ctx, a.secrets)
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(a.cfg.Auth.JWT, signingKey, &auth.Identity{
				Principal: subject,
				Roles:     roles,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}),
	}

	cmd.Flags().StringVar(&subject, "sub", "resourcectl", "Token subject")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role to grant (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}
