// Monitor is the long-running riskwatch pipeline daemon.  It consumes
// entity update events, runs the fetch/gate/validate cycle and emits
// validated alerts to the configured sinks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/riskwatch/internal/app"
	"github.com/turtacn/riskwatch/internal/config"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the configuration file")
	workers := flag.Int("workers", 0, "override pipeline.workers (0 uses the config value)")
	source := flag.String("source", "", "override stream.source: kafka or csv (empty uses the config value)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("riskwatch monitor %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return
	}

	if err := run(*configPath, app.Options{Workers: *workers, Source: *source}); err != nil {
		fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, opts app.Options) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		return err
	}

	logger.Info("starting riskwatch monitor",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("config", configPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}

//Personal.AI order the ending
