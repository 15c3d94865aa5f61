package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vsync/internal/live"
	"github.com/vango-dev/vsync/internal/treefile"
	"github.com/vango-dev/vsync/pkg/metrics"
	"github.com/vango-dev/vsync/pkg/vdom"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		port     int
		host     string
		interval string
		trees    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live document that cycles through trees",
		Long: `Start an HTTP server holding a live document and render a new tree into
it every interval. Connected WebSocket clients receive a snapshot and
then the mutations of every render.

Routes:
  /         current document as HTML
  /ws       binary mutation frame stream
  /metrics  Prometheus metrics (if metrics.enabled)
  /healthz  liveness

The demo trees are used unless --trees names a tree file holding
several trees separated by "---".

Examples:
  vsync serve
  vsync serve --port=8080 --interval=500ms
  vsync serve --trees=frames.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if port > 0 {
				cfg.Serve.Port = port
			}
			if host != "" {
				cfg.Serve.Host = host
			}
			if interval != "" {
				cfg.Serve.Interval = interval
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			frames := demoTrees()
			if trees != "" {
				if frames, err = treefile.LoadAll(trees); err != nil {
					return err
				}
			}

			logger := cfg.Logger(cmd.ErrOrStderr())
			opts := cfg.ReconcilerOptions()

			var (
				m   *metrics.Collector
				reg *prometheus.Registry
			)
			if cfg.Metrics.Enabled {
				reg = prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m = metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace), metrics.WithRegistry(reg))
				opts = append(opts, vdom.WithObserver(m))
			}

			session := live.NewSession(logger, opts...)
			hub := live.NewHub(session, live.HubOptions{Logger: logger, Metrics: m})
			serverOpts := live.ServerOptions{
				Addr:   cfg.ServeAddress(),
				Hub:    hub,
				Logger: logger,
			}
			if reg != nil {
				serverOpts.Gatherer = reg
			}
			server := live.NewServer(serverOpts)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			success(w, "Serving %d trees every %s", len(frames), cfg.ServeInterval())
			info(w, "http://%s/", cfg.ServeAddress())
			fmt.Fprintln(w)

			go live.Play(ctx, hub, frames, cfg.ServeInterval(), logger)
			return server.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from vsync.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vsync.json)")
	cmd.Flags().StringVarP(&interval, "interval", "i", "", "Time between renders (default from vsync.json)")
	cmd.Flags().StringVarP(&trees, "trees", "t", "", "Tree file to cycle through instead of the demo trees")

	return cmd
}
