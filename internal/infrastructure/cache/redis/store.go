// Package redis persists the in-memory risk cache to Redis so a restarted
// monitor warm-starts instead of re-fetching every attribute.
//
// ─────────────────────────────────────────────────────────────────────────────
// The store is write-behind: the authoritative cache lives in memory and a
// background loop flushes snapshots on an interval. Losing the last interval
// of writes only costs redundant fetch cycles, never correctness.
// ─────────────────────────────────────────────────────────────────────────────
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/pkg/errors"
)

const (
	defaultFlushInterval = 30 * time.Second
	defaultSnapshotTTL   = 72 * time.Hour

	// Fraction of SnapshotTTL added as random jitter so a fleet of monitors
	// does not expire its snapshots simultaneously.
	snapshotTTLJitter = 0.1
)

// Config holds Redis connection settings.
type Config struct {
	Addr         string        `mapstructure:"addr"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`

	// KeyPrefix namespaces this deployment's snapshot hash.
	KeyPrefix string `mapstructure:"key_prefix"`

	// FlushInterval is the write-behind period.
	FlushInterval time.Duration `mapstructure:"flush_interval"`

	// SnapshotTTL bounds how long a snapshot outlives its last flush.
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// hashClient is the narrow Redis surface the store needs; the go-redis
// client satisfies it through goredisAdapter, tests substitute fakes.
type hashClient interface {
	HSet(ctx context.Context, key string, values map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

type goredisAdapter struct {
	rdb goredis.UniversalClient
}

func (a goredisAdapter) HSet(ctx context.Context, key string, values map[string]string) error {
	flat := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		flat = append(flat, k, v)
	}
	return a.rdb.HSet(ctx, key, flat...).Err()
}

func (a goredisAdapter) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return a.rdb.HGetAll(ctx, key).Result()
}

func (a goredisAdapter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return a.rdb.Expire(ctx, key, ttl).Err()
}

func (a goredisAdapter) Ping(ctx context.Context) error {
	return a.rdb.Ping(ctx).Err()
}

func (a goredisAdapter) Close() error { return a.rdb.Close() }

// SnapshotStore saves and restores the risk cache as one Redis hash, field
// per lookup attribute, JSON-encoded CacheEntry per field.
type SnapshotStore struct {
	client        hashClient
	key           string
	flushInterval time.Duration
	snapshotTTL   time.Duration
	logger        logging.Logger
}

// NewSnapshotStore dials Redis and verifies connectivity.
func NewSnapshotStore(ctx context.Context, cfg Config, logger logging.Logger) (*SnapshotStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.ErrCodeValidation, "redis addr required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "riskwatch:"
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = defaultSnapshotTTL
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	s := &SnapshotStore{
		client:        goredisAdapter{rdb: rdb},
		key:           cfg.KeyPrefix + "cache",
		flushInterval: cfg.FlushInterval,
		snapshotTTL:   cfg.SnapshotTTL,
		logger:        logger.Named("redis"),
	}
	if err := s.client.Ping(ctx); err != nil {
		s.client.Close()
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "redis ping failed")
	}
	return s, nil
}

// Save writes the full snapshot. Existing fields are overwritten; fields for
// attributes no longer present are left behind, which is harmless because
// Restore keeps whichever entry is newer.
func (s *SnapshotStore) Save(ctx context.Context, snapshot map[string]risk.CacheEntry) error {
	if len(snapshot) == 0 {
		return nil
	}
	values := make(map[string]string, len(snapshot))
	for attr, entry := range snapshot {
		data, err := json.Marshal(entry)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal cache entry")
		}
		values[attr] = string(data)
	}
	if err := s.client.HSet(ctx, s.key, values); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to write cache snapshot")
	}
	// Each flush pushes the expiry forward; only an abandoned snapshot ages
	// out. Jitter staggers expiry across instances sharing a Redis.
	jitter := time.Duration(rand.Int63n(int64(float64(s.snapshotTTL) * snapshotTTLJitter)))
	if err := s.client.Expire(ctx, s.key, s.snapshotTTL+jitter); err != nil {
		s.logger.Warn("failed to refresh snapshot expiry", logging.Err(err))
	}
	return nil
}

// Load reads the persisted snapshot. Corrupt fields are skipped with a
// warning rather than failing the warm start.
func (s *SnapshotStore) Load(ctx context.Context) (map[string]risk.CacheEntry, error) {
	raw, err := s.client.HGetAll(ctx, s.key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to read cache snapshot")
	}
	out := make(map[string]risk.CacheEntry, len(raw))
	for attr, data := range raw {
		var entry risk.CacheEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			s.logger.Warn("skipping corrupt snapshot entry",
				logging.String("attribute", attr),
				logging.Err(err))
			continue
		}
		out[attr] = entry
	}
	return out, nil
}

// RunWriteBehind flushes the cache on the configured interval until ctx is
// cancelled, then performs one final flush.
func (s *SnapshotStore) RunWriteBehind(ctx context.Context, cache *risk.Cache) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Save(flushCtx, cache.Snapshot()); err != nil {
				s.logger.Error("final snapshot flush failed", logging.Err(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Save(ctx, cache.Snapshot()); err != nil {
				s.logger.Error("snapshot flush failed", logging.Err(err))
			}
		}
	}
}

// Close releases the underlying connection pool.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

//Personal.AI order the ending
