package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate after ApplyDefaults.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Fetchers.Corpus.Enabled = true
	cfg.Fetchers.Corpus.Path = "data/synthetic_country_disaster.jsonl"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.TTL)
	assert.Equal(t, DefaultKeywords, cfg.Pipeline.Keywords)
	assert.Equal(t, DefaultGNewsMaxResults, cfg.Fetchers.GNews.MaxResults)
	assert.Equal(t, 10*time.Second, cfg.Fetchers.GNews.Timeout)
	assert.Equal(t, DefaultValidatorRPS, cfg.Validator.RPS)
	assert.Equal(t, DefaultSinkCSVPath, cfg.Sink.CSVPath)
	assert.Equal(t, "kafka", cfg.Stream.Source)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.TTL = 5 * time.Minute
	cfg.Pipeline.Keywords = []string{"fraud"}
	ApplyDefaults(cfg)

	assert.Equal(t, 5*time.Minute, cfg.Pipeline.TTL)
	assert.Equal(t, []string{"fraud"}, cfg.Pipeline.Keywords)
}

func TestApplyDefaultsNil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestValidateRejectsBadServerPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	assert.ErrorContains(t, cfg.Validate(), "server.port")
}

func TestValidateRejectsUnknownStreamSource(t *testing.T) {
	cfg := validConfig()
	cfg.Stream.Source = "pulsar"
	assert.ErrorContains(t, cfg.Validate(), "stream.source")
}

func TestValidateRequiresCSVPathForCSVSource(t *testing.T) {
	cfg := validConfig()
	cfg.Stream.Source = "csv"
	cfg.Stream.CSVPath = ""
	assert.ErrorContains(t, cfg.Validate(), "stream.csv_path")
}

func TestValidateRejectsZeroTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.TTL = 0
	assert.ErrorContains(t, cfg.Validate(), "pipeline.ttl")
}

func TestValidateRejectsEmptyKeywords(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.Keywords = nil
	assert.ErrorContains(t, cfg.Validate(), "pipeline.keywords")
}

func TestValidateRequiresOneFetcher(t *testing.T) {
	cfg := validConfig()
	cfg.Fetchers.Corpus.Enabled = false
	assert.ErrorContains(t, cfg.Validate(), "at least one fetcher")
}

func TestValidateRequiresGNewsAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Fetchers.GNews.Enabled = true
	cfg.Fetchers.GNews.APIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "gnews.api_key")
}

func TestValidateRequiresValidatorEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Validator.Endpoint = ""
	assert.ErrorContains(t, cfg.Validate(), "validator.endpoint")
}

func TestValidateRequiresRedisAddrWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	assert.ErrorContains(t, cfg.Validate(), "redis.addr")
}

//Personal.AI order the ending
