package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phrazzld/asyncsql/internal/api"
	"github.com/phrazzld/asyncsql/internal/config"
	"github.com/phrazzld/asyncsql/internal/task"
)

// execOptions holds the flags of the exec subcommand
type execOptions struct {
	capture bool
	output  string
	timeout time.Duration
}

// newExecCommand creates the exec subcommand
func newExecCommand(opts *cliOptions) *cobra.Command {
	execOpts := &execOptions{}

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run one query through the scheduler and print its result",
		Example: `  asyncsql exec "UPDATE bans SET expired = 1 WHERE until < 1700000000"
  asyncsql exec --capture --output yaml "SELECT name, score FROM players"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeApp(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), execOpts.timeout)
			defer cancel()

			return runExec(ctx, cfg, log, args[0], execOpts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&execOpts.capture, "capture", false, "Keep and print result rows")
	cmd.Flags().StringVarP(&execOpts.output, "output", "o", "json", "Output format: json or yaml")
	cmd.Flags().DurationVar(&execOpts.timeout, "timeout", 30*time.Second, "How long to wait for the result")

	return cmd
}

// runExec initializes a one-connection scheduler, enqueues query and ticks
// until its result is delivered.
func runExec(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	query string,
	opts *execOptions,
	out io.Writer,
) error {
	if opts.output != "json" && opts.output != "yaml" {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	driver, connCfg, err := newDriver(cfg.Database)
	if err != nil {
		return err
	}

	errLog := task.NewFileErrorLog(cfg.ErrorLog.Dir, cfg.Server.Port, logger)
	scheduler := task.NewScheduler(driver, schedulerConfig(cfg.Scheduler), errLog, nil, logger)

	delivered := make(chan api.ResultBody, 1)
	callback := task.CallbackFunc(func(target task.Target, result task.Result, id task.TaskID) {
		delivered <- api.NewResultBody(id, target, result)
	})

	if err := scheduler.Initialize(ctx, connCfg, 1, callback); err != nil {
		return fmt.Errorf("failed to initialize query scheduler: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := scheduler.Close(closeCtx); err != nil {
			logger.Error("Error closing query scheduler", "error", err)
		}
	}()

	if initErrs := scheduler.ConnectionInitErrors(); len(initErrs) > 0 {
		return initErrs[0]
	}

	id, err := scheduler.Enqueue(query, task.Global, opts.capture)
	if err != nil {
		return fmt.Errorf("failed to enqueue query: %w", err)
	}
	logger.Debug("query submitted", "task_id", id)

	ticker := time.NewTicker(cfg.Host.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for task %d: %w", id, ctx.Err())
		case body := <-delivered:
			if !body.HasValue && opts.capture {
				logger.Warn("query produced no value, see the error log",
					"task_id", id,
					"error_log", errLog.Path())
			}
			return writeResult(out, opts.output, body)
		case <-ticker.C:
			scheduler.OnTick()
		}
	}
}

// writeResult renders body in the requested format.
func writeResult(out io.Writer, format string, body api.ResultBody) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(body); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	}
}
