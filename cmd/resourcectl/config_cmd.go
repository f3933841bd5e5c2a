package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/resourcecache/config"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage resourcectl configuration.

The config file defaults to ./resourcectl.toml; a missing file means
built-in defaults.`,
		Example: `  resourcectl config init       # Create default config
  resourcectl config show       # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd(c))
	cmd.AddCommand(newConfigShowCmd(c))

	return cmd
}

func newConfigInitCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  resourcectl config init
  resourcectl config init -f                  # Overwrite existing config
  resourcectl -c /etc/resourcectl.toml config init`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(c.configPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", c.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")

	return cmd
}

func newConfigShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			if c.jsonOut {
				return c.printJSON(cmd.OutOrStdout(), c.app.cfg)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(c.app.cfg)
		}),
	}
}
