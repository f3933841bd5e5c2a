package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/resourcecache/auth"
	"github.com/jonwraymond/resourcecache/health"
)

func newServerCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "server",
		Short:   "Show backend server info",
		GroupID: GroupServer,
		Args:    cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			a := c.app
			if err := auth.Require(c.ctx, a.authz, resourceServer, auth.ActionRead); err != nil {
				return err
			}
			info, err := a.server.LoadData(c.ctx)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(cmd.OutOrStdout(), info)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:     %s\n", info.Name)
			fmt.Fprintf(w, "Version:  %s\n", info.Version)
			fmt.Fprintf(w, "Users:    %d\n", info.Users)
			fmt.Fprintf(w, "Teams:    %d\n", info.Teams)
			fmt.Fprintf(w, "Started:  %s\n", info.StartedAt.Format(time.RFC3339))
			return nil
		}),
	}
}

func newHealthCmd(c *cli) *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:     "health",
		Short:   "Run resource health checks",
		GroupID: GroupServer,
		Args:    cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			a := c.app
			if warm {
				// Errors surface in the report.
				_ = a.server.Load(c.ctx)
				_, _ = a.teams.LoadAll(c.ctx)
			}

			report := a.health.CheckAll(c.ctx)
			if c.jsonOut {
				resp := health.Response{Status: report.Status, Timestamp: report.Timestamp.Format(time.RFC3339)}
				for _, r := range report.Checks {
					check := health.CheckResponse{Name: r.Name, Status: r.Status, Message: r.Message, Duration: r.Duration.String(), Details: r.Details}
					if r.Error != nil {
						check.Error = r.Error.Error()
					}
					resp.Checks = append(resp.Checks, check)
				}
				if err := c.printJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
				return unhealthy(report.Status)
			}
			tw := newTable(cmd.OutOrStdout(), "CHECK", "STATUS", "MESSAGE")
			for _, r := range report.Checks {
				msg := r.Message
				if r.Error != nil {
					msg += ": " + r.Error.Error()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Status, orDash(msg))
			}
			fmt.Fprintf(tw, "overall\t%s\t\n", report.Status)
			if err := tw.Flush(); err != nil {
				return err
			}
			return unhealthy(report.Status)
		}),
	}

	cmd.Flags().BoolVarP(&warm, "warm", "w", false, "Load every resource before checking")

	return cmd
}

func unhealthy(s health.Status) error {
	if s == health.StatusUnhealthy {
		return fmt.Errorf("health: %s", s)
	}
	return nil
}
