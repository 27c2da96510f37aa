package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	downstreamadapter "github.com/widoyo/pbase-gto/internal/adapter/downstream"
	httpadapter "github.com/widoyo/pbase-gto/internal/adapter/http"
	kafkaadapter "github.com/widoyo/pbase-gto/internal/adapter/kafka"
	"github.com/widoyo/pbase-gto/internal/observability"
	"github.com/widoyo/pbase-gto/internal/pipeline"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Consume raw payloads from the bus and persist readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		metrics := observability.NewMetrics()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		calib := pipeline.NewCachedCalibration(store, cfg.DeviceCacheTTL)

		// Forwarding is feature-flagged on PWEB_URL.
		var forwarder pipeline.Forwarder
		if cfg.DownstreamURL != "" {
			forwarder = downstreamadapter.NewClient(cfg.DownstreamURL, cfg.ForwardTimeout, logger)
			logger.Info("downstream forwarding enabled", "url", cfg.DownstreamURL)
		} else {
			logger.Info("downstream forwarding disabled")
		}

		reader := kafkaadapter.NewReader(cfg, logger)
		ingestor := pipeline.NewIngestor(calib, store, forwarder, logger, metrics)
		p := pipeline.New(reader, ingestor, logger, metrics)

		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
