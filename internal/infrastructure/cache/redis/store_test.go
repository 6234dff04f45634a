package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
)

type fakeHashClient struct {
	mu      sync.Mutex
	data    map[string]map[string]string
	hsets   int
	expires int
	lastTTL time.Duration
	hsetErr error
}

func newFakeHashClient() *fakeHashClient {
	return &fakeHashClient{data: make(map[string]map[string]string)}
}

func (f *fakeHashClient) HSet(ctx context.Context, key string, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hsets++
	if f.hsetErr != nil {
		return f.hsetErr
	}
	if f.data[key] == nil {
		f.data[key] = make(map[string]string)
	}
	for k, v := range values {
		f.data[key][k] = v
	}
	return nil
}

func (f *fakeHashClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.data[key]))
	for k, v := range f.data[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeHashClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires++
	f.lastTTL = ttl
	return nil
}

func (f *fakeHashClient) Ping(ctx context.Context) error { return nil }
func (f *fakeHashClient) Close() error                   { return nil }

func (f *fakeHashClient) hsetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hsets
}

func newTestStore(client hashClient, interval time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client:        client,
		key:           "riskwatch:cache",
		flushInterval: interval,
		snapshotTTL:   defaultSnapshotTTL,
		logger:        logging.NewNopLogger(),
	}
}

var storeT0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	client := newFakeHashClient()
	store := newTestStore(client, time.Second)

	snapshot := map[string]risk.CacheEntry{
		"Ruritania": {
			CheckedAt: storeT0,
			Alerts: []risk.ValidatedAlert{{
				EntityKey:       "Acme Corp",
				LookupAttribute: "Ruritania",
				ThreatType:      "strike",
				Headline:        "Port strike halts exports",
			}},
		},
		"Borduria": {CheckedAt: storeT0.Add(time.Minute), Alerts: []risk.ValidatedAlert{}},
	}

	require.NoError(t, store.Save(context.Background(), snapshot))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, storeT0, loaded["Ruritania"].CheckedAt.UTC())
	assert.Equal(t, "strike", loaded["Ruritania"].Alerts[0].ThreatType)
	assert.Empty(t, loaded["Borduria"].Alerts)
}

func TestSnapshotSaveRefreshesExpiry(t *testing.T) {
	client := newFakeHashClient()
	store := newTestStore(client, time.Second)

	snapshot := map[string]risk.CacheEntry{"Ruritania": {CheckedAt: storeT0}}
	require.NoError(t, store.Save(context.Background(), snapshot))

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.expires)
	assert.GreaterOrEqual(t, client.lastTTL, defaultSnapshotTTL)
	assert.Less(t, client.lastTTL, defaultSnapshotTTL+defaultSnapshotTTL/5)
}

func TestSnapshotSaveEmptyIsNoop(t *testing.T) {
	client := newFakeHashClient()
	store := newTestStore(client, time.Second)
	require.NoError(t, store.Save(context.Background(), nil))
	assert.Zero(t, client.hsetCount())
}

func TestSnapshotLoadSkipsCorruptEntries(t *testing.T) {
	client := newFakeHashClient()
	good, _ := json.Marshal(risk.CacheEntry{CheckedAt: storeT0})
	client.data["riskwatch:cache"] = map[string]string{
		"Ruritania": string(good),
		"Borduria":  "{not json",
	}
	store := newTestStore(client, time.Second)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	_, ok := loaded["Ruritania"]
	assert.True(t, ok)
}

func TestWriteBehindFlushesOnCancel(t *testing.T) {
	client := newFakeHashClient()
	store := newTestStore(client, time.Hour) // interval never fires in-test

	cache := risk.NewCache(time.Hour)
	cache.Store("Ruritania", nil, storeT0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunWriteBehind(ctx, cache)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write-behind loop did not exit")
	}

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestWriteBehindPeriodicFlush(t *testing.T) {
	client := newFakeHashClient()
	store := newTestStore(client, 10*time.Millisecond)

	cache := risk.NewCache(time.Hour)
	cache.Store("Ruritania", nil, storeT0)

	ctx, cancel := context.WithCancel(context.Background())
	go store.RunWriteBehind(ctx, cache)
	defer cancel()

	assert.Eventually(t, func() bool { return client.hsetCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

//Personal.AI order the ending
