package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/resourcecache/key"
	"github.com/jonwraymond/resourcecache/observe"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve cached resources over HTTP",
		GroupID: GroupServer,
		Args:    cobra.NoArgs,
		Long: `Serve cached resources over HTTP.

Endpoints:
  /v1/server, /v1/users, /v1/users/{id}, /v1/teams, /v1/notifications
  /healthz, /readyz, /health, /health/{name}
  /metrics (when observe.metrics.exporter is "prometheus")`,
		Example: `  resourcectl serve
  resourcectl serve --addr :9090 --invalidate 30s`,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			a := c.app
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.serve(c.ctx, addr, interval, func(ln net.Listener) {
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())
			})
		}),
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	cmd.Flags().DurationVar(&interval, "invalidate", 0, "Mark users outdated at this interval (0 disables)")

	return cmd
}

// serve warms the caches, then serves until ctx is done.
func (a *app) serve(ctx context.Context, addr string, interval time.Duration, ready func(net.Listener)) error {
	if _, err := a.teams.LoadAll(ctx); err != nil {
		a.logger.Warn(ctx, "cache warmup failed", observe.Field{Key: "error", Value: err.Error()})
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln)
	}

	srv := &http.Server{
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if interval > 0 {
		go a.invalidateEvery(ctx, interval)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// invalidateEvery marks users outdated periodically; teams follow through
// the sync link and reload on the next request.
func (a *app) invalidateEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.users.MarkOutdated(ctx, key.All[string]()); err != nil {
				a.logger.Warn(ctx, "invalidate users", observe.Field{Key: "error", Value: err.Error()})
			}
		}
	}
}
