package cli

import (
	"github.com/spf13/cobra"

	"github.com/widoyo/pbase-gto/internal/adapter/upstream"
)

var syncDevicesCmd = &cobra.Command{
	Use:   "sync-devices",
	Short: "Register devices listed by the vendor API",
	Long: `sync-devices pulls the vendor's device roster and inserts any serial
numbers not yet registered. Existing devices keep their calibration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.RequireUpstream(); err != nil {
			return err
		}
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		client := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamUser, cfg.UpstreamPass, cfg.FetchTimeout, logger)
		serials, err := client.FetchSerials(ctx)
		if err != nil {
			return err
		}

		added := 0
		for _, sn := range serials {
			inserted, err := store.InsertDevice(ctx, sn)
			if err != nil {
				return err
			}
			if inserted {
				added++
				logger.Info("registered device", "device", sn)
			}
		}
		logger.Info("device sync complete", "listed", len(serials), "added", added)
		return nil
	},
}
