package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/riskwatch/internal/app"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
)

// newRunCmd creates the run subcommand, the daemon mode of the CLI.  It is
// equivalent to the monitor binary.
func newRunCmd(opts *RootOptions) *cobra.Command {
	var (
		workers int
		source  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring pipeline until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting riskwatch pipeline",
				logging.String("version", Version),
				logging.String("config", opts.ConfigPath))

			a, err := app.New(ctx, cfg, logger, app.Options{Workers: workers, Source: source})
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "override pipeline.workers (0 uses the config value)")
	cmd.Flags().StringVar(&source, "source", "", "override stream.source: kafka or csv")

	return cmd
}

//Personal.AI order the ending
