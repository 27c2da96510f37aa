// Package cli wires the pbase subcommands: the bus listener, the bulk
// historical fetch, the device roster sync, the bulk forward, and the
// report dispatch.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/widoyo/pbase-gto/internal/config"
	"github.com/widoyo/pbase-gto/internal/observability"
	"github.com/widoyo/pbase-gto/internal/repository/postgres"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pbase",
	Short: "Hydro-meteorological telemetry base station",
	Long: `pbase ingests raw payloads from hydro-meteorological loggers,
persists calibrated readings idempotently, forwards them downstream,
and dispatches periodic status reports to tenants.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(syncDevicesCmd)
	rootCmd.AddCommand(sendBulkCmd)
	rootCmd.AddCommand(reportCmd)
}

// openStore migrates the schema and connects the repository. Called by
// every subcommand that touches readings; missing configuration aborts
// before any work starts.
func openStore(ctx context.Context) (*postgres.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return nil, err
	}
	return postgres.New(ctx, cfg.DatabaseURL)
}
