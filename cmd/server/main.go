// Package main implements the asyncsql command. It runs the query scheduler
// behind an HTTP host that ticks result delivery, or executes a single query
// from the shell.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/phrazzld/asyncsql/internal/config"
	"github.com/phrazzld/asyncsql/internal/platform/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliOptions holds flags shared by every subcommand
type cliOptions struct {
	configFile string
}

// newRootCommand creates the root cobra command
func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "asyncsql",
		Short: "Asynchronous SQL query scheduler",
		Long: `asyncsql runs SQL queries on a fixed pool of persistent connections
without blocking the caller. Results are handed back on the next host tick.

Configuration is read from asyncsql.yaml (or --config) and ASYNCSQL_*
environment variables, for example ASYNCSQL_DATABASE_DRIVER=postgres.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newExecCommand(opts))

	return rootCmd
}

// newServeCommand creates the serve subcommand
func newServeCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler behind the HTTP host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeApp(opts)
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
}

// initializeApp loads configuration and sets up logging.
func initializeApp(opts *cliOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"driver", cfg.Database.Driver)
	log.Debug("Scheduler configuration",
		"connection_count", cfg.Scheduler.ConnectionCount,
		"dispatch_interval", cfg.Scheduler.DispatchInterval,
		"max_pending", cfg.Scheduler.MaxPending,
		"query_timeout", cfg.Scheduler.QueryTimeout)

	return cfg, log, nil
}
