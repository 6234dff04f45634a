// Package config defines all configuration structures for the riskwatch
// pipeline.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds the operational HTTP server tunables (health, metrics,
// recent alerts).
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	SessionTimeout  time.Duration `mapstructure:"session_timeout"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// RedisConfig holds the optional cache snapshot store parameters.  The
// in-memory cache is always authoritative; Redis only warms restarts.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// PipelineConfig holds the risk-detection engine parameters.
type PipelineConfig struct {
	// TTL is the freshness window of a cache entry, compared against event
	// time.  A lookup at exactly CheckedAt+TTL is stale.
	TTL time.Duration `mapstructure:"ttl"`

	// Keywords is the risk-indicative vocabulary used by the keyword gate.
	Keywords []string `mapstructure:"keywords"`

	// Workers is the number of key-partitioned dispatcher workers.
	Workers int `mapstructure:"workers"`

	// QueueDepth is the per-worker event buffer size.
	QueueDepth int `mapstructure:"queue_depth"`

	// CycleTimeout bounds one complete fetch→gate→validate cycle.
	CycleTimeout time.Duration `mapstructure:"cycle_timeout"`

	// ValidationConcurrency bounds parallel validator calls per cycle.
	ValidationConcurrency int `mapstructure:"validation_concurrency"`

	// RecentAlertsBuffer is the size of the in-memory ring exposed on the
	// ops API.
	RecentAlertsBuffer int `mapstructure:"recent_alerts_buffer"`
}

// GNewsConfig holds the live news fetcher parameters.
type GNewsConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CorpusConfig holds the static synthetic-corpus fetcher parameters.
type CorpusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Watch   bool   `mapstructure:"watch"`
}

// RSSConfig holds the RSS/Atom feed fetcher parameters.
type RSSConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Feeds   []string      `mapstructure:"feeds"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FetchersConfig groups all signal fetcher settings.
type FetchersConfig struct {
	GNews  GNewsConfig  `mapstructure:"gnews"`
	Corpus CorpusConfig `mapstructure:"corpus"`
	RSS    RSSConfig    `mapstructure:"rss"`
}

// ValidatorConfig holds the external threat-validator parameters.
type ValidatorConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RPS      float64       `mapstructure:"rps"`
	Burst    int           `mapstructure:"burst"`
}

// SinkConfig holds the alert-sink parameters.
type SinkConfig struct {
	CSVPath      string `mapstructure:"csv_path"`
	KafkaEnabled bool   `mapstructure:"kafka_enabled"`
}

// StreamConfig holds the entity-stream source parameters.
type StreamConfig struct {
	Source  string `mapstructure:"source"` // "kafka" | "csv"
	CSVPath string `mapstructure:"csv_path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the pipeline.  Every
// component reads its settings from the relevant sub-struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Fetchers  FetchersConfig  `mapstructure:"fetchers"`
	Validator ValidatorConfig `mapstructure:"validator"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Stream    StreamConfig    `mapstructure:"stream"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Stream
	switch c.Stream.Source {
	case "kafka", "csv":
	default:
		return fmt.Errorf("config: stream.source %q is invalid; expected kafka|csv", c.Stream.Source)
	}
	if c.Stream.Source == "kafka" {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
	}
	if c.Stream.Source == "csv" && c.Stream.CSVPath == "" {
		return fmt.Errorf("config: stream.csv_path is required when stream.source is csv")
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis.enabled is true")
	}

	// Pipeline
	if c.Pipeline.TTL <= 0 {
		return fmt.Errorf("config: pipeline.ttl must be > 0, got %v", c.Pipeline.TTL)
	}
	if len(c.Pipeline.Keywords) == 0 {
		return fmt.Errorf("config: pipeline.keywords must contain at least one term")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: pipeline.workers must be ≥ 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.ValidationConcurrency < 1 {
		return fmt.Errorf("config: pipeline.validation_concurrency must be ≥ 1, got %d", c.Pipeline.ValidationConcurrency)
	}

	// Fetchers — at least one source must be enabled or the engine can never
	// produce a cycle result.
	if !c.Fetchers.GNews.Enabled && !c.Fetchers.Corpus.Enabled && !c.Fetchers.RSS.Enabled {
		return fmt.Errorf("config: at least one fetcher must be enabled")
	}
	if c.Fetchers.GNews.Enabled && c.Fetchers.GNews.APIKey == "" {
		return fmt.Errorf("config: fetchers.gnews.api_key is required when gnews is enabled")
	}
	if c.Fetchers.Corpus.Enabled && c.Fetchers.Corpus.Path == "" {
		return fmt.Errorf("config: fetchers.corpus.path is required when corpus is enabled")
	}
	if c.Fetchers.RSS.Enabled && len(c.Fetchers.RSS.Feeds) == 0 {
		return fmt.Errorf("config: fetchers.rss.feeds must contain at least one feed URL")
	}

	// Validator
	if c.Validator.Endpoint == "" {
		return fmt.Errorf("config: validator.endpoint is required")
	}
	if c.Validator.RPS <= 0 {
		return fmt.Errorf("config: validator.rps must be > 0, got %v", c.Validator.RPS)
	}

	// Sink
	if c.Sink.CSVPath == "" {
		return fmt.Errorf("config: sink.csv_path is required")
	}

	return nil
}

//Personal.AI order the ending
