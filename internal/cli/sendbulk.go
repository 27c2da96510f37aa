package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/widoyo/pbase-gto/internal/adapter/downstream"
	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/observability"
	"github.com/widoyo/pbase-gto/internal/pipeline"
)

var sendBulkCmd = &cobra.Command{
	Use:   "send-bulk",
	Short: "Forward a full day of readings downstream",
	Long: `send-bulk posts every reading that arrived in a location's local day
downstream, one envelope per location. Locations with no readings in the
window send nothing. Defaults to the current local day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.RequireDownstream(); err != nil {
			return err
		}
		dateFlag, err := cmd.Flags().GetString("date")
		if err != nil {
			return err
		}

		day := domain.Clock().Now()
		if dateFlag != "" {
			day, err = time.Parse("2006-01-02", dateFlag)
			if err != nil {
				return err
			}
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		client := downstream.NewClient(cfg.DownstreamURL, cfg.ForwardTimeout, logger)
		metrics := observability.NewMetrics()
		forwarder := pipeline.NewBulkForwarder(store, client, logger, metrics)

		return forwarder.ForwardDay(ctx, day)
	},
}

func init() {
	sendBulkCmd.Flags().String("date", "", "local day to forward (YYYY-MM-DD, default today)")
}
