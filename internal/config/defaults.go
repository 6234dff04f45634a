// Package config provides configuration loading, defaults, and validation
// for the riskwatch pipeline.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8081
	DefaultServerMode = "release"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaGroupID    = "riskwatch-monitor"
	DefaultDeadLetterTopic = "risk.dead_letter"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "riskwatch:"

	DefaultCacheTTL              = 30 * time.Minute
	DefaultWorkers               = 8
	DefaultQueueDepth            = 64
	DefaultCycleTimeout          = 2 * time.Minute
	DefaultValidationConcurrency = 4
	DefaultRecentAlertsBuffer    = 256

	DefaultGNewsBaseURL    = "https://gnews.io/api/v4/search"
	DefaultGNewsMaxResults = 3
	DefaultFetcherTimeout  = 10 * time.Second

	DefaultValidatorEndpoint = "https://generativelanguage.googleapis.com/v1/models/gemini-2.0-flash:generateContent"
	DefaultValidatorTimeout  = 10 * time.Second
	DefaultValidatorRPS      = 2.0
	DefaultValidatorBurst    = 2

	DefaultSinkCSVPath = "output/validated_threats.csv"

	DefaultStreamSource = "kafka"
)

// DefaultKeywords is the risk vocabulary carried over from the monitored
// supply-chain deployments.  Deployments override it per domain
// (reputational monitoring swaps in fraud/complaint terms).
var DefaultKeywords = []string{
	"strike", "sanction", "war", "conflict", "shutdown",
	"port", "earthquake", "flood", "cyclone", "fire",
}

// ApplyDefaults fills every zero-value field in cfg with the pipeline
// default.  Fields that have already been set by the caller are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ───────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// ── Log ──────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Kafka ────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.SessionTimeout == 0 {
		cfg.Kafka.SessionTimeout = 30 * time.Second
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.DeadLetterTopic == "" {
		cfg.Kafka.DeadLetterTopic = DefaultDeadLetterTopic
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}

	// ── Pipeline ─────────────────────────────────────────────────────────────
	if cfg.Pipeline.TTL == 0 {
		cfg.Pipeline.TTL = DefaultCacheTTL
	}
	if len(cfg.Pipeline.Keywords) == 0 {
		cfg.Pipeline.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = DefaultWorkers
	}
	if cfg.Pipeline.QueueDepth == 0 {
		cfg.Pipeline.QueueDepth = DefaultQueueDepth
	}
	if cfg.Pipeline.CycleTimeout == 0 {
		cfg.Pipeline.CycleTimeout = DefaultCycleTimeout
	}
	if cfg.Pipeline.ValidationConcurrency == 0 {
		cfg.Pipeline.ValidationConcurrency = DefaultValidationConcurrency
	}
	if cfg.Pipeline.RecentAlertsBuffer == 0 {
		cfg.Pipeline.RecentAlertsBuffer = DefaultRecentAlertsBuffer
	}

	// ── Fetchers ─────────────────────────────────────────────────────────────
	if cfg.Fetchers.GNews.BaseURL == "" {
		cfg.Fetchers.GNews.BaseURL = DefaultGNewsBaseURL
	}
	if cfg.Fetchers.GNews.MaxResults == 0 {
		cfg.Fetchers.GNews.MaxResults = DefaultGNewsMaxResults
	}
	if cfg.Fetchers.GNews.Timeout == 0 {
		cfg.Fetchers.GNews.Timeout = DefaultFetcherTimeout
	}
	if cfg.Fetchers.RSS.Timeout == 0 {
		cfg.Fetchers.RSS.Timeout = DefaultFetcherTimeout
	}

	// ── Validator ────────────────────────────────────────────────────────────
	if cfg.Validator.Endpoint == "" {
		cfg.Validator.Endpoint = DefaultValidatorEndpoint
	}
	if cfg.Validator.Timeout == 0 {
		cfg.Validator.Timeout = DefaultValidatorTimeout
	}
	if cfg.Validator.RPS == 0 {
		cfg.Validator.RPS = DefaultValidatorRPS
	}
	if cfg.Validator.Burst == 0 {
		cfg.Validator.Burst = DefaultValidatorBurst
	}

	// ── Sink / Stream ────────────────────────────────────────────────────────
	if cfg.Sink.CSVPath == "" {
		cfg.Sink.CSVPath = DefaultSinkCSVPath
	}
	if cfg.Stream.Source == "" {
		cfg.Stream.Source = DefaultStreamSource
	}
}

//Personal.AI order the ending
