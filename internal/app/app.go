// Package app assembles the riskwatch pipeline from configuration: cache,
// keyword gate, fetchers, validator, sinks, engine, dispatcher, stream
// source and the operational HTTP server.  Both binaries build on it.
package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/turtacn/riskwatch/internal/config"
	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/fetchers/corpus"
	"github.com/turtacn/riskwatch/internal/fetchers/gnews"
	"github.com/turtacn/riskwatch/internal/fetchers/rss"
	redisstore "github.com/turtacn/riskwatch/internal/infrastructure/cache/redis"
	"github.com/turtacn/riskwatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/prometheus"
	httpapi "github.com/turtacn/riskwatch/internal/interfaces/http"
	"github.com/turtacn/riskwatch/internal/sink"
	"github.com/turtacn/riskwatch/internal/stream"
	"github.com/turtacn/riskwatch/internal/stream/csvtail"
	"github.com/turtacn/riskwatch/internal/stream/kafkastream"
	"github.com/turtacn/riskwatch/internal/validation/gemini"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

// Options carries command-line overrides applied on top of the loaded
// configuration.  Zero values mean "use the config file".
type Options struct {
	// Workers overrides pipeline.workers when > 0.
	Workers int

	// Source overrides stream.source when non-empty ("kafka" or "csv").
	Source string
}

// ─────────────────────────────────────────────────────────────────────────────
// App
// ─────────────────────────────────────────────────────────────────────────────

// App is a fully wired pipeline.  Construct with New, then call Run, which
// blocks until the context is cancelled and performs an ordered shutdown.
type App struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *prometheus.Metrics

	cache      *risk.Cache
	engine     *risk.Engine
	dispatcher *risk.Dispatcher
	source     stream.Source
	ring       *sink.RingSink
	reporter   risk.CycleReporter
	server     *httpapi.Server

	producer     *kafka.Producer
	snapshot     *redisstore.SnapshotStore
	snapshotDone chan struct{}

	ready atomic.Bool
}

// New wires every component declared in cfg.  It performs no network I/O
// except an optional Redis ping for the snapshot store; Kafka connections
// are established lazily on first use.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.InvalidParam("app requires a configuration")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Workers > 0 {
		cfg.Pipeline.Workers = opts.Workers
	}
	if opts.Source != "" {
		cfg.Stream.Source = opts.Source
	}

	a := &App{
		cfg:     cfg,
		logger:  logger.Named("app"),
		metrics: prometheus.NewMetrics("riskwatch"),
	}

	a.cache = risk.NewCache(cfg.Pipeline.TTL)

	gate, err := risk.NewKeywordGate(cfg.Pipeline.Keywords)
	if err != nil {
		return nil, err
	}

	fetchers, err := a.buildFetchers()
	if err != nil {
		return nil, err
	}

	validator, err := gemini.New(cfg.Validator)
	if err != nil {
		return nil, err
	}

	alertSink, err := a.buildSinks()
	if err != nil {
		return nil, err
	}

	a.engine, err = risk.NewEngine(risk.EngineOptions{
		Cache:                 a.cache,
		Gate:                  gate,
		Fetchers:              fetchers,
		Validator:             validator,
		Sink:                  alertSink,
		CycleTimeout:          cfg.Pipeline.CycleTimeout,
		ValidationConcurrency: cfg.Pipeline.ValidationConcurrency,
		Reporter:              a.reporter,
		Logger:                logger,
		Metrics:               a.metrics,
	})
	if err != nil {
		return nil, err
	}

	a.dispatcher, err = risk.NewDispatcher(a.engine, cfg.Pipeline.Workers, cfg.Pipeline.QueueDepth, logger)
	if err != nil {
		return nil, err
	}

	a.source, err = a.buildSource(logger)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		a.snapshot, err = redisstore.NewSnapshotStore(ctx, redisstore.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	a.server = httpapi.NewServer(cfg.Server.Port, httpapi.RouterConfig{
		Metrics:      a.metrics,
		Alerts:       a.ring,
		Ready:        a.ready.Load,
		Mode:         cfg.Server.Mode,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	})

	return a, nil
}

// buildFetchers assembles the enabled signal fetchers in a stable order so
// that candidate ordering is deterministic across restarts.
func (a *App) buildFetchers() ([]risk.Fetcher, error) {
	cfg := a.cfg.Fetchers
	var fetchers []risk.Fetcher

	if cfg.GNews.Enabled {
		f, err := gnews.New(cfg.GNews, a.cfg.Pipeline.Keywords)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}
	if cfg.Corpus.Enabled {
		f, err := corpus.New(cfg.Corpus.Path, cfg.Corpus.Watch, a.logger)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}
	if cfg.RSS.Enabled {
		f, err := rss.New(cfg.RSS.Feeds, cfg.RSS.Timeout, a.logger)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}

	if len(fetchers) == 0 {
		return nil, errors.InvalidParam("at least one fetcher must be enabled")
	}
	return fetchers, nil
}

// buildSinks assembles the CSV sink, the in-memory recent-alerts ring and,
// when configured, the Kafka alert publisher behind one MultiSink.
func (a *App) buildSinks() (risk.AlertSink, error) {
	multi := sink.NewMultiSink(a.logger, a.metrics)

	csvSink, err := sink.NewCSVSink(a.cfg.Sink.CSVPath)
	if err != nil {
		return nil, err
	}
	multi.Add("csv", csvSink)

	a.ring = sink.NewRingSink(a.cfg.Pipeline.RecentAlertsBuffer)
	multi.Add("ring", a.ring)

	if a.cfg.Sink.KafkaEnabled {
		a.producer, err = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:    a.cfg.Kafka.Brokers,
			Acks:       "all",
			MaxRetries: a.cfg.Kafka.ProducerRetries,
			BatchSize:  a.cfg.Kafka.BatchSize,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		ks, err := sink.NewKafkaSink(a.producer, kafka.TopicAlertValidated)
		if err != nil {
			return nil, err
		}
		multi.Add("kafka", ks)

		a.reporter, err = sink.NewKafkaCycleReporter(a.producer, kafka.TopicCycleCompleted, a.logger)
		if err != nil {
			return nil, err
		}
	}
	return multi, nil
}

// buildSource selects the entity-event source declared by stream.source.
func (a *App) buildSource(logger logging.Logger) (stream.Source, error) {
	switch a.cfg.Stream.Source {
	case "csv":
		src, err := csvtail.New(a.cfg.Stream.CSVPath, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "kafka":
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:         a.cfg.Kafka.Brokers,
			GroupID:         a.cfg.Kafka.GroupID,
			Topics:          []string{kafka.TopicEntityUpdate},
			AutoOffsetReset: a.cfg.Kafka.AutoOffsetReset,
			SessionTimeout:  a.cfg.Kafka.SessionTimeout,
			RetryConfig: kafka.RetryConfig{
				DeadLetterTopic: a.cfg.Kafka.DeadLetterTopic,
			},
		}, logger)
		if err != nil {
			return nil, err
		}
		src, err := kafkastream.New(consumer, kafka.TopicEntityUpdate, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, errors.InvalidParam(fmt.Sprintf("unknown stream source %q", a.cfg.Stream.Source))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// Run starts the pipeline and blocks until ctx is cancelled or the stream
// source fails.  Shutdown order: stop intake, drain the dispatcher, close
// the engine, flush the snapshot store, stop the HTTP server.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Stream.Source == "kafka" || a.cfg.Sink.KafkaEnabled {
		a.ensureTopics(runCtx)
	}

	if a.snapshot != nil {
		entries, err := a.snapshot.Load(runCtx)
		if err != nil {
			a.logger.Warn("cache warm start failed, starting cold", logging.Err(err))
		} else if len(entries) > 0 {
			a.cache.Restore(entries)
			a.logger.Info("cache warmed from snapshot", logging.Int("entries", len(entries)))
		}
		a.snapshotDone = make(chan struct{})
		go func() {
			defer close(a.snapshotDone)
			a.snapshot.RunWriteBehind(runCtx, a.cache)
		}()
	}

	a.dispatcher.Start(runCtx)

	serverErr := make(chan error, 1)
	go func() { serverErr <- a.server.Start() }()

	a.ready.Store(true)
	a.logger.Info("pipeline started",
		logging.String("source", a.cfg.Stream.Source),
		logging.Int("workers", a.cfg.Pipeline.Workers),
		logging.Int("port", a.cfg.Server.Port))

	sourceErr := make(chan error, 1)
	go func() {
		sourceErr <- a.source.Run(runCtx, func(ctx context.Context, ev risk.EntityEvent) error {
			return a.dispatcher.Dispatch(ctx, ev)
		})
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-sourceErr:
		if err != nil && ctx.Err() == nil {
			runErr = err
		}
	case err := <-serverErr:
		if err != nil {
			runErr = err
		}
	}

	a.ready.Store(false)
	a.shutdown(cancel)
	return runErr
}

// ensureTopics creates the standard topics ahead of the first publish or
// consume. Failures are logged, not fatal: on managed clusters the topics
// exist already and topic creation may be denied.
func (a *App) ensureTopics(ctx context.Context) {
	tm, err := kafka.NewTopicManager(a.cfg.Kafka.Brokers, a.logger)
	if err != nil {
		a.logger.Warn("topic manager unavailable, assuming topics exist", logging.Err(err))
		return
	}
	defer func() {
		if err := tm.Close(); err != nil {
			a.logger.Warn("topic manager close failed", logging.Err(err))
		}
	}()
	if err := tm.EnsureDefaultTopics(ctx); err != nil {
		a.logger.Warn("topic bootstrap failed, assuming topics exist", logging.Err(err))
	}
}

func (a *App) shutdown(cancel context.CancelFunc) {
	a.logger.Info("shutting down")

	if err := a.source.Close(); err != nil {
		a.logger.Warn("stream source close failed", logging.Err(err))
	}

	// Drains queued events through the engine before workers exit.
	a.dispatcher.Close()
	a.engine.Close()

	// Cancelling the run context triggers the snapshot store's final flush.
	cancel()
	if a.snapshot != nil {
		<-a.snapshotDone
		if err := a.snapshot.Close(); err != nil {
			a.logger.Warn("snapshot store close failed", logging.Err(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("producer close failed", logging.Err(err))
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer done()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Warn("http server stop failed", logging.Err(err))
	}

	a.logger.Info("shutdown complete")
}

// Cache exposes the live cache, used by the replay command to inspect state.
func (a *App) Cache() *risk.Cache { return a.cache }

// Engine exposes the wired engine for direct, single-event processing.
func (a *App) Engine() *risk.Engine { return a.engine }

//Personal.AI order the ending
