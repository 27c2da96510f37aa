package cli

import (
	"github.com/spf13/cobra"

	"github.com/widoyo/pbase-gto/internal/adapter/upstream"
	"github.com/widoyo/pbase-gto/internal/observability"
	"github.com/widoyo/pbase-gto/internal/pipeline"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull historical payloads from the vendor API and ingest them",
	Long: `fetch replays payloads served by the vendor API through the same
transform-store path as the bus listener. Duplicates are skipped by the
idempotent store, so re-running a day is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.RequireUpstream(); err != nil {
			return err
		}
		sn, err := cmd.Flags().GetString("sn")
		if err != nil {
			return err
		}
		date, err := cmd.Flags().GetString("date")
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		metrics := observability.NewMetrics()
		calib := pipeline.NewCachedCalibration(store, cfg.DeviceCacheTTL)
		ingestor := pipeline.NewIngestor(calib, store, nil, logger, metrics)
		client := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamUser, cfg.UpstreamPass, cfg.FetchTimeout, logger)

		serials := []string{sn}
		if sn == "" {
			devices, err := store.ListDevices(ctx)
			if err != nil {
				return err
			}
			serials = serials[:0]
			for _, d := range devices {
				serials = append(serials, d.SN)
			}
		}

		for _, serial := range serials {
			payloads, err := client.FetchPayloads(ctx, serial, date)
			if err != nil {
				logger.Error("fetch failed", "device", serial, "error", err)
				continue
			}
			for _, payload := range payloads {
				if err := ingestor.Ingest(ctx, payload); err != nil {
					return err
				}
			}
			logger.Info("fetched device", "device", serial, "payloads", len(payloads))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("sn", "", "fetch a single device by serial number")
	fetchCmd.Flags().String("date", "", "sampling date to fetch (YYYY-MM-DD, default latest)")
}
