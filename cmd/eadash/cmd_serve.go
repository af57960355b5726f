package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/eadash/dashboard"
)

var (
	serveAddr  string
	serveWatch bool
)

// serveCmd serves the dashboard API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API and chart images",
	Long: `Builds the dashboard once and serves it over HTTP:

  GET /healthz              build id and time
  GET /api/dashboard        full dashboard payload
  GET /api/funding/flows    flow list (?format=json|pretty|csv|text)
  GET /api/countries        per-country table and map points
  GET /charts/{id}.{png|svg}
  GET /metrics              Prometheus metrics

With --watch the data directory is watched and the dashboard rebuilt after
changes settle.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8050)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Rebuild when files in the data directory change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := dashboard.NewMetrics()
	builder := &dashboard.Builder{Config: cfg, Logger: logger, Metrics: metrics}
	srv := dashboard.NewServer(builder, metrics, logger)
	if err := srv.Rebuild(ctx); err != nil {
		return err
	}

	var watcher *dashboard.Watcher
	if serveWatch || cfg.Server.Watch {
		watcher, err = dashboard.NewWatcher(cfg.DataDir, cfg.Server.Debounce, srv.Rebuild, logger)
		if err != nil {
			return err
		}
		logger.Info("watching data directory", zap.String("dir", cfg.DataDir))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Server.Addr)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
