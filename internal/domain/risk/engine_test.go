package risk

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// test doubles
// ─────────────────────────────────────────────────────────────────────────────

type stubFetcher struct {
	name       string
	candidates []Candidate
	err        error
	calls      int32
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context, attribute string) ([]Candidate, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Candidate, len(f.candidates))
	copy(out, f.candidates)
	return out, nil
}

func (f *stubFetcher) callCount() int { return int(atomic.LoadInt32(&f.calls)) }

// stubValidator answers per headline; unknown headlines are rejected.
type stubValidator struct {
	mu       sync.Mutex
	answers  map[string]bool
	errOn    map[string]error
	calls    int
	seenKeys []string
}

func (v *stubValidator) Validate(ctx context.Context, entityKey, attribute string, c Candidate) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	v.seenKeys = append(v.seenKeys, entityKey)
	if err, ok := v.errOn[c.Headline]; ok {
		return false, err
	}
	return v.answers[c.Headline], nil
}

func (v *stubValidator) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type captureSink struct {
	mu      sync.Mutex
	batches [][]ValidatedAlert
	err     error
}

func (s *captureSink) Emit(ctx context.Context, alerts []ValidatedAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]ValidatedAlert, len(alerts))
	copy(batch, alerts)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *captureSink) all() []ValidatedAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ValidatedAlert
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func (s *captureSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

type captureReporter struct {
	mu        sync.Mutex
	summaries []CycleSummary
}

func (r *captureReporter) ReportCycle(ctx context.Context, s CycleSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

func (r *captureReporter) all() []CycleSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CycleSummary, len(r.summaries))
	copy(out, r.summaries)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// harness
// ─────────────────────────────────────────────────────────────────────────────

var engineT0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type engineFixture struct {
	engine    *Engine
	cache     *Cache
	fetcher   *stubFetcher
	validator *stubValidator
	sink      *captureSink
}

func newFixture(t *testing.T, ttl time.Duration, fetchers ...Fetcher) *engineFixture {
	t.Helper()
	fx := &engineFixture{
		cache:     NewCache(ttl),
		validator: &stubValidator{answers: map[string]bool{}, errOn: map[string]error{}},
		sink:      &captureSink{},
	}
	if len(fetchers) == 0 {
		fx.fetcher = &stubFetcher{name: "gnews"}
		fetchers = []Fetcher{fx.fetcher}
	} else if f, ok := fetchers[0].(*stubFetcher); ok {
		fx.fetcher = f
	}
	gate := mustGate(t, "strike", "sanction", "war", "flood", "fire")
	eng, err := NewEngine(EngineOptions{
		Cache:        fx.cache,
		Gate:         gate,
		Fetchers:     fetchers,
		Validator:    fx.validator,
		Sink:         fx.sink,
		CycleTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	fx.engine = eng
	return fx
}

func event(key, attr string, at time.Time) EntityEvent {
	return EntityEvent{EntityKey: key, LookupAttribute: attr, EventTime: at}
}

// ─────────────────────────────────────────────────────────────────────────────
// tests
// ─────────────────────────────────────────────────────────────────────────────

func TestEngineEndToEnd(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{
		{Headline: "Port strike halts Ruritania exports", Description: "Dockworkers walk out"},
		{Headline: "Ruritania GDP grows", Description: "Economy expands"},
	}
	fx.validator.answers["Port strike halts Ruritania exports"] = true

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, "Acme Corp", a.EntityKey)
	assert.Equal(t, "Ruritania", a.LookupAttribute)
	assert.Equal(t, "strike", a.ThreatType)
	assert.Equal(t, "Port strike halts Ruritania exports", a.Headline)
	assert.Equal(t, "gnews", a.Source)
	assert.False(t, a.ValidatedAt.IsZero())

	// non-matching candidate never reached the validator
	assert.Equal(t, 1, fx.validator.callCount())
	assert.Equal(t, alerts, fx.sink.all())
}

func TestEngineFreshHitReplaysWithoutFetching(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{{Headline: "Flood warning for Ruritania"}}
	fx.validator.answers["Flood warning for Ruritania"] = true

	_, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	require.Equal(t, 1, fx.fetcher.callCount())
	require.Equal(t, 1, fx.validator.callCount())

	// a different entity, same attribute, 5 minutes later: pure replay
	alerts, err := fx.engine.Process(context.Background(), event("Borealis Ltd", "Ruritania", engineT0.Add(5*time.Minute)))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Borealis Ltd", alerts[0].EntityKey, "replayed alert restamped with requesting entity")
	assert.Equal(t, 1, fx.fetcher.callCount(), "no fetch on fresh hit")
	assert.Equal(t, 1, fx.validator.callCount(), "no validation on fresh hit")
	assert.Equal(t, 2, fx.sink.batchCount(), "both events emitted")
}

func TestEngineStaleEntryRefetches(t *testing.T) {
	ttl := 30 * time.Minute
	fx := newFixture(t, ttl)
	fx.fetcher.candidates = []Candidate{{Headline: "Sanction list expanded"}}
	fx.validator.answers["Sanction list expanded"] = true

	_, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)

	// exactly at the TTL boundary the entry is stale
	_, err = fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0.Add(ttl)))
	require.NoError(t, err)
	assert.Equal(t, 2, fx.fetcher.callCount())

	entry, _, ok := fx.cache.Lookup("Ruritania", engineT0.Add(ttl))
	require.True(t, ok)
	assert.Equal(t, engineT0.Add(ttl), entry.CheckedAt, "cycle stamped with triggering event time")
}

func TestEngineEmptyCycleStillCaches(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{{Headline: "Nothing risky here"}}

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Zero(t, fx.sink.batchCount(), "no emission for empty outcome")

	// checked-and-clean is cached: the next event is a fresh hit
	_, err = fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, 1, fx.fetcher.callCount())
}

func TestEngineFailSafeValidation(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{
		{Headline: "Wildfire near supplier plant"},
		{Headline: "Dock strike spreads"},
	}
	fx.validator.errOn["Wildfire near supplier plant"] = errors.New(errors.ErrCodeValidatorCallFailed, "upstream 500")
	fx.validator.answers["Dock strike spreads"] = true

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	require.Len(t, alerts, 1, "errored candidate dropped, healthy one kept")
	assert.Equal(t, "Dock strike spreads", alerts[0].Headline)
}

func TestEnginePartialSourceFailure(t *testing.T) {
	good := &stubFetcher{name: "gnews", candidates: []Candidate{{Headline: "Port strike in Ruritania"}}}
	bad := &stubFetcher{name: "rss", err: errors.New(errors.ErrCodeFetchFailed, "feed unreachable")}
	fx := newFixture(t, 30*time.Minute, good, bad)
	fx.validator.answers["Port strike in Ruritania"] = true

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "gnews", alerts[0].Source)

	// partial results are cached like any other completed cycle
	_, fresh, ok := fx.cache.Lookup("Ruritania", engineT0.Add(time.Minute))
	assert.True(t, ok)
	assert.True(t, fresh)
}

func TestEngineAllSourcesFailedLeavesCacheUnwritten(t *testing.T) {
	bad1 := &stubFetcher{name: "gnews", err: errors.New(errors.ErrCodeFetchFailed, "503")}
	bad2 := &stubFetcher{name: "rss", err: errors.New(errors.ErrCodeFetchFailed, "timeout")}
	fx := newFixture(t, 30*time.Minute, bad1, bad2)

	_, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAllSourcesFailed))

	_, _, ok := fx.cache.Lookup("Ruritania", engineT0)
	assert.False(t, ok, "failed cycle must not be cached")

	// the next event retries rather than replaying a failure
	_, err = fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0.Add(time.Second)))
	require.Error(t, err)
	assert.Equal(t, 2, bad1.callCount())
}

func TestEngineDedupBeforeValidation(t *testing.T) {
	a := &stubFetcher{name: "gnews", candidates: []Candidate{{Headline: "Port strike halts exports"}}}
	b := &stubFetcher{name: "rss", candidates: []Candidate{{Headline: "Port strike halts exports"}}}
	fx := newFixture(t, 30*time.Minute, a, b)
	fx.validator.answers["Port strike halts exports"] = true

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 1, fx.validator.callCount(), "duplicate headline validated once")
	assert.Equal(t, "gnews", alerts[0].Source, "first-registered source wins")
}

func TestEngineWordBoundaryGating(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{
		{Headline: "Warsaw hosts trade summit"},
		{Headline: "Region on brink of war"},
	}
	fx.validator.answers["Region on brink of war"] = true

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "war", alerts[0].ThreatType)
	assert.Equal(t, 1, fx.validator.callCount(), "Warsaw headline never validated")
}

func TestEngineConcurrentSameAttributeSingleCycle(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{{Headline: "Flood hits Ruritania"}}
	fx.validator.answers["Flood hits Ruritania"] = true

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// concurrent misses share a leader's cycle instead of fanning out
	assert.Less(t, fx.fetcher.callCount(), n)
	assert.Equal(t, n, fx.sink.batchCount(), "every event still emits its own batch")
}

func TestEngineSinkFailureDoesNotFailProcess(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{{Headline: "Fire at port warehouse"}}
	fx.validator.answers["Fire at port warehouse"] = true
	fx.sink.err = errors.New(errors.ErrCodeSinkWriteFailed, "disk full")

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err, "sink failure is logged, not propagated")
	assert.Len(t, alerts, 1)

	// the cycle outcome is durable despite the failed emission
	_, fresh, ok := fx.cache.Lookup("Ruritania", engineT0.Add(time.Minute))
	assert.True(t, ok)
	assert.True(t, fresh)
}

func TestEngineReportsCompletedCycles(t *testing.T) {
	cache := NewCache(30 * time.Minute)
	fetcher := &stubFetcher{name: "gnews", candidates: []Candidate{
		{Headline: "Port strike halts Ruritania exports"},
		{Headline: "Ruritania GDP grows"},
	}}
	validator := &stubValidator{answers: map[string]bool{"Port strike halts Ruritania exports": true}, errOn: map[string]error{}}
	reporter := &captureReporter{}
	eng, err := NewEngine(EngineOptions{
		Cache:        cache,
		Gate:         mustGate(t, "strike"),
		Fetchers:     []Fetcher{fetcher},
		Validator:    validator,
		Sink:         &captureSink{},
		Reporter:     reporter,
		CycleTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	_, err = eng.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)

	summaries := reporter.all()
	require.Len(t, summaries, 1)
	assert.Equal(t, "Ruritania", summaries[0].LookupAttribute)
	assert.Equal(t, 2, summaries[0].Candidates)
	assert.Equal(t, 1, summaries[0].Alerts)
	assert.Equal(t, engineT0, summaries[0].CheckedAt)

	// a fresh hit replays from cache and runs no cycle to report
	_, err = eng.Process(context.Background(), event("Borealis Ltd", "Ruritania", engineT0.Add(5*time.Minute)))
	require.NoError(t, err)
	assert.Len(t, reporter.all(), 1)
}

func TestEngineLeavesSinkFailureCountingToSinks(t *testing.T) {
	cache := NewCache(30 * time.Minute)
	fetcher := &stubFetcher{name: "gnews", candidates: []Candidate{{Headline: "Fire at port warehouse"}}}
	validator := &stubValidator{answers: map[string]bool{"Fire at port warehouse": true}, errOn: map[string]error{}}
	metrics := prometheus.NewMetrics("test")
	eng, err := NewEngine(EngineOptions{
		Cache:        cache,
		Gate:         mustGate(t, "fire"),
		Fetchers:     []Fetcher{fetcher},
		Validator:    validator,
		Sink:         &captureSink{err: errors.New(errors.ErrCodeSinkWriteFailed, "disk full")},
		Metrics:      metrics,
		CycleTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	_, err = eng.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)

	// per-sink failure labels belong to the sink layer; the engine must not
	// add its own sample for the same failed emission
	assert.Zero(t, promtest.CollectAndCount(metrics.SinkWriteFailures))
	assert.Zero(t, promtest.ToFloat64(metrics.AlertsEmitted), "failed emission not counted as emitted")
}

func TestEngineRejectsInvalidEvent(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	_, err := fx.engine.Process(context.Background(), EntityEvent{LookupAttribute: "Ruritania", EventTime: engineT0})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventInvalid))
	assert.Zero(t, fx.fetcher.callCount())
}

func TestEngineClosedRejectsProcess(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.engine.Close()
	_, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEngineClosed))
}

func TestEngineThreatTypeLowercased(t *testing.T) {
	fx := newFixture(t, 30*time.Minute)
	fx.fetcher.candidates = []Candidate{{Headline: "STRIKE SHUTS PORT"}}
	fx.validator.answers["STRIKE SHUTS PORT"] = true

	alerts, err := fx.engine.Process(context.Background(), event("Acme Corp", "Ruritania", engineT0))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, strings.ToLower(alerts[0].ThreatType), alerts[0].ThreatType)
}

//Personal.AI order the ending
