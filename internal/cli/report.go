package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/widoyo/pbase-gto/internal/adapter/telegram"
	"github.com/widoyo/pbase-gto/internal/domain"
	"github.com/widoyo/pbase-gto/internal/observability"
	"github.com/widoyo/pbase-gto/internal/report"
	"github.com/widoyo/pbase-gto/internal/repository/postgres"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Dispatch status reports to tenant chats",
}

var reportRainCmd = &cobra.Command{
	Use:   "rain",
	Short: "Send per-tenant rainfall accumulation reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := newReporter(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return r.SendRainfallReports(cmd.Context())
	},
}

var reportWlevelCmd = &cobra.Command{
	Use:   "wlevel",
	Short: "Send per-tenant water level reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := newReporter(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return r.SendWaterLevelReports(cmd.Context())
	},
}

var reportArrivalCmd = &cobra.Command{
	Use:   "arrival",
	Short: "Send per-tenant data arrival completeness reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := newReporter(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		// Completeness is judged over a finished day, so the default is
		// yesterday in each tenant's zone. The flag pins an absolute day
		// instead; per-tenant zones then interpret the same date locally.
		day := domain.Clock().Now().AddDate(0, 0, -1)
		if dateFlag, _ := cmd.Flags().GetString("date"); dateFlag != "" {
			var err error
			day, err = time.Parse("2006-01-02", dateFlag)
			if err != nil {
				return err
			}
		}
		return r.SendArrivalReports(cmd.Context(), day)
	},
}

func newReporter(cmd *cobra.Command) (*report.Reporter, *postgres.Store, error) {
	ctx := cmd.Context()
	if err := cfg.RequireBot(); err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	bot := telegram.NewClient(cfg.BotAPIURL, cfg.BotToken, cfg.DispatchTimeout, logger)
	metrics := observability.NewMetrics()
	return report.NewReporter(store, bot, logger, metrics), store, nil
}

func init() {
	reportArrivalCmd.Flags().String("date", "", "local day to report (YYYY-MM-DD, default yesterday)")
	reportCmd.AddCommand(reportRainCmd)
	reportCmd.AddCommand(reportWlevelCmd)
	reportCmd.AddCommand(reportArrivalCmd)
}
