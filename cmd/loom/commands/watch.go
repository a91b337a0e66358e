package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.trai.ch/loom/internal/app"
	"go.trai.ch/loom/internal/ui/style"
	"go.trai.ch/zerr"
)

// ErrWatchUnavailable is returned when the CLI was built without a watcher.
var ErrWatchUnavailable = errors.New("watch is not available")

const metricsReadHeaderTimeout = 5 * time.Second

func (c *CLI) newWatchCmd() *cobra.Command {
	var (
		metricsAddr string
		debounce    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Print the project's dependency state and reprint it when files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.newWatcher == nil || c.filter == nil {
				return ErrWatchUnavailable
			}
			ctx := cmd.Context()

			if metricsAddr != "" {
				stop := c.serveMetrics(ctx, metricsAddr)
				defer stop()
			}

			w, err := c.newWatcher()
			if err != nil {
				return err
			}

			path := c.projectPath(args)
			out := cmd.OutOrStdout()
			return c.app.Watch(ctx, path, w, c.filter, app.WatchOptions{
				Framework:     c.framework,
				Configuration: c.configuration,
				Debounce:      debounce,
			}, func(snap *app.Snapshot) {
				if c.jsonOutput {
					if err := writeJSON(out, snap); err != nil && c.logger != nil {
						c.logger.Error(err)
					}
					return
				}
				renderSnapshot(newRenderer(out), snap)
			})
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before file changes are processed (default 50ms)")
	return cmd
}

// serveMetrics exposes the cache counters until the returned function is called.
func (c *CLI) serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && c.logger != nil {
			c.logger.Error(zerr.With(zerr.Wrap(err, "metrics server stopped"), "addr", addr))
		}
	}()

	return func() {
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil && c.logger != nil {
			c.logger.Warn("failed to stop metrics server", "error", err.Error())
		}
	}
}

func renderSnapshot(r *renderer, snap *app.Snapshot) {
	if snap.Absent {
		r.section(snap.Project)
		r.line("%s %s", r.failure.Render(style.Cross), "project not found")
		return
	}
	for _, fw := range snap.Frameworks {
		r.section(fmt.Sprintf("%s (%s)", snap.Project, fw.Framework))
		if fw.Absent {
			r.line("%s %s", r.failure.Render(style.Cross), "framework not declared")
			continue
		}
		r.field("dependencies", fmt.Sprint(len(fw.Dependencies)))
		r.field("file refs", fmt.Sprint(len(fw.FileReferences)))
		r.field("sources", fmt.Sprint(len(fw.Sources)))
		for _, d := range fw.Diagnostics {
			r.line("%s %s", r.caution.Render(style.Warning), d)
		}
	}
}
