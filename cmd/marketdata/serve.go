package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/internal/api"
	"github.com/Checker-Finance/marketdata/internal/jobs"
	"github.com/Checker-Finance/marketdata/internal/publisher"
	"github.com/Checker-Finance/marketdata/internal/snapshot"
	"github.com/Checker-Finance/marketdata/pkg/cache"
	"github.com/Checker-Finance/marketdata/pkg/catalog"
	"github.com/Checker-Finance/marketdata/pkg/config"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/utils"
)

// catalogView serves the refresher's cached list with on-demand fallback.
type catalogView struct {
	*jobs.CatalogRefresher
	*catalog.Reconciler
}

func newServeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the catalog refresher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	cmd.Flags().DurationVar(&cfg.CatalogRefreshInterval, "refresh", cfg.CatalogRefreshInterval, "catalog refresh interval")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.L()
	logg := logger.S()
	logg.Infof("starting [%s] %s...", cfg.ServiceName, version)

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	checks := map[string]api.HealthCheck{}
	if r, ok := d.store.(*cache.Redis); ok {
		checks["cache"] = r.HealthCheck
	}

	// --- Optional Postgres snapshot ---
	var writer jobs.SnapshotWriter
	if cfg.DatabaseURL != "" {
		logg.Info("connection to DSN: ", utils.MaskDSN(cfg.DatabaseURL))
		pool, err := snapshot.NewPool(ctx, cfg.DatabaseURL, snapshot.PGPoolConfig{
			MaxConns:        int32(cfg.PGMaxConns),
			MinConns:        int32(cfg.PGMinConns),
			MaxConnLifetime: cfg.PGMaxConnLifetime,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		w, err := snapshot.NewWriter(pool, log, cfg.SnapshotTable)
		if err != nil {
			return err
		}
		writer = w
		checks["postgres"] = pool.Ping
	} else {
		logg.Warn("DATABASE_URL not configured; catalog snapshot disabled")
	}

	// --- Optional NATS publisher ---
	var events jobs.EventPublisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		pub, err := publisher.New(nc, cfg.CatalogSubject, cfg.ServiceName)
		if err != nil {
			nc.Close()
			return fmt.Errorf("failed to init publisher: %w", err)
		}
		defer pub.Close()
		if err := pub.EnsureStream(cfg.CatalogStream); err != nil {
			logg.Warnw("publisher.ensure_stream_failed", "stream", cfg.CatalogStream, "error", err)
		}
		events = pub
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New("disconnected")
			}
			return nc.FlushTimeout(time.Second)
		}
	} else {
		logg.Warn("NATS_URL not configured; catalog events disabled")
	}

	// --- Catalog refresher ---
	refresher := jobs.NewCatalogRefresher(log, d.reconciler, writer, events, cfg.CatalogRefreshInterval)
	go refresher.Start(ctx)
	defer refresher.Stop()

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.HTTPReadTimeout,
		WriteTimeout:          cfg.HTTPWriteTimeout,
		IdleTimeout:           cfg.HTTPIdleTimeout,
		BodyLimit:             cfg.HTTPBodyLimit,
		DisableStartupMessage: true,
	})
	handler := api.NewMarketDataHandler(log, d.cc, catalogView{refresher, d.reconciler})
	api.RegisterRoutes(app, handler, checks)

	errCh := make(chan error, 1)
	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber.listen_failed: %w", err)
	case <-ctx.Done():
	}

	logg.Infof("shutting down [%s]...", cfg.ServiceName)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("fiber.shutdown_failed", zap.Error(err))
	}
	return nil
}
