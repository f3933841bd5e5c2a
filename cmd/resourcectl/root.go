package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/resourcecache/config"
)

// Command group IDs for organizing help output
const (
	GroupData   = "data"
	GroupServer = "server"
	GroupConfig = "config"
)

const defaultConfigPath = "resourcectl.toml"

// cli is the state shared by every command of one invocation.
type cli struct {
	configPath string
	token      string
	jsonOut    bool

	app *app
	// ctx carries the session identity once PersistentPreRunE ran.
	ctx context.Context
}

// skipApp lists commands that run without building the app.
var skipApp = map[string]bool{
	"init":       true,
	"help":       true,
	"completion": true,
	"__complete": true,
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "resourcectl",
		Short: "Cached access to users, teams and server info",
		Long: `resourcectl loads entities from a backend through client-side resource
caches. Repeated reads are served from the cache; related resources keep
each other fresh through links.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipApp[cmd.Name()] {
				return nil
			}
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultConfigPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", os.Getenv("RESOURCECTL_TOKEN"), "Session token")
	rootCmd.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Print JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupData, Title: "Data Commands:"},
		&cobra.Group{ID: GroupServer, Title: "Server Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	rootCmd.AddCommand(newUsersCmd(c))
	rootCmd.AddCommand(newUserCmd(c))
	rootCmd.AddCommand(newRenameCmd(c))
	rootCmd.AddCommand(newTeamsCmd(c))

	rootCmd.AddCommand(newServerCmd(c))
	rootCmd.AddCommand(newServeCmd(c))
	rootCmd.AddCommand(newHealthCmd(c))

	rootCmd.AddCommand(newConfigCmd(c))
	rootCmd.AddCommand(newTokenCmd(c))

	return rootCmd
}

// Execute runs the root command with signal handling.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'resourcectl -h' for help")
		os.Exit(1)
	}
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	ctx, err := a.session(cmd.Context(), c.token)
	if err != nil {
		_ = a.close(cmd.Context())
		return fmt.Errorf("session: %w", err)
	}
	c.app = a
	c.ctx = ctx
	return nil
}

// teardown prints pending notifications and shuts the app down.
func (c *cli) teardown(cmd *cobra.Command) error {
	if c.app == nil {
		return nil
	}
	printNotices(cmd.ErrOrStderr(), c.app.notices.List())
	return c.shutdown(cmd)
}

func (c *cli) shutdown(cmd *cobra.Command) error {
	if c.app == nil {
		return nil
	}
	a := c.app
	c.app = nil

	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
	defer cancel()
	return a.close(ctx)
}

// run adapts fn to cobra. Cobra skips PersistentPostRunE when RunE
// fails, so the app is shut down here; the error itself is reported by
// Execute.
func (c *cli) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			_ = c.shutdown(cmd)
		}
		return err
	}
}

func (c *cli) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
