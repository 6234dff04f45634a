// Package risk - fetch cycle orchestration.
//
// ─────────────────────────────────────────────────────────────────────────────
// The Engine ties the pipeline together: cache lookup, per-key serialized
// fetch cycles, keyword gating, deduplication, fail-safe validation and
// atomic emission. One Engine instance serves all workers.
// ─────────────────────────────────────────────────────────────────────────────
package risk

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// EngineOptions configures a new Engine. Fetchers, Validator, Sink, Gate and
// Cache are required; the rest fall back to sane defaults.
type EngineOptions struct {
	Cache     *Cache
	Gate      *KeywordGate
	Fetchers  []Fetcher
	Validator Validator
	Sink      AlertSink

	// CycleTimeout bounds one full fetch→validate cycle.
	CycleTimeout time.Duration

	// ValidationConcurrency caps in-flight validator calls per cycle.
	ValidationConcurrency int

	// Reporter, when set, is notified after every completed cycle.
	Reporter CycleReporter

	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// Engine executes the per-event decision: replay from cache when fresh,
// otherwise run one shared fetch cycle for the attribute.
type Engine struct {
	cache     *Cache
	gate      *KeywordGate
	fetchers  []Fetcher
	validator Validator
	sink      AlertSink

	cycleTimeout time.Duration
	valWorkers   int
	reporter     CycleReporter

	// flight collapses concurrent cycles for the same attribute: one
	// leader runs, followers block and share its result.
	flight singleflight.Group

	// rootCtx outlives any single caller so a follower's cancellation
	// cannot kill the leader's in-progress cycle.
	rootCtx context.Context
	cancel  context.CancelFunc

	closed  bool
	closeMu sync.Mutex

	logger  logging.Logger
	metrics *prometheus.Metrics
}

// NewEngine validates the options and builds an Engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Cache == nil || opts.Gate == nil || opts.Validator == nil || opts.Sink == nil {
		return nil, errors.InvalidParam("engine requires cache, gate, validator and sink")
	}
	if len(opts.Fetchers) == 0 {
		return nil, errors.InvalidParam("engine requires at least one fetcher")
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = 2 * time.Minute
	}
	if opts.ValidationConcurrency <= 0 {
		opts.ValidationConcurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = prometheus.NewMetrics("riskwatch")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cache:        opts.Cache,
		gate:         opts.Gate,
		fetchers:     opts.Fetchers,
		validator:    opts.Validator,
		sink:         opts.Sink,
		cycleTimeout: opts.CycleTimeout,
		valWorkers:   opts.ValidationConcurrency,
		reporter:     opts.Reporter,
		rootCtx:      ctx,
		cancel:       cancel,
		logger:       opts.Logger.Named("engine"),
		metrics:      opts.Metrics,
	}, nil
}

// Close stops the engine. In-flight cycles are cancelled; subsequent
// Process calls fail with ErrCodeEngineClosed.
func (e *Engine) Close() {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancel()
}

func (e *Engine) isClosed() bool {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	return e.closed
}

// Process handles one entity event end to end and returns the alerts emitted
// for it (possibly empty). A fresh cache hit replays the cached outcome with
// no fetcher or validator traffic; a miss or stale entry triggers a fetch
// cycle shared by every concurrent event for the same attribute.
//
// Sink failures are logged and counted but do not fail Process: the cycle's
// outcome is already durable in the cache at emission time.
func (e *Engine) Process(ctx context.Context, ev EntityEvent) ([]ValidatedAlert, error) {
	if e.isClosed() {
		return nil, errors.New(errors.ErrCodeEngineClosed, "engine is closed")
	}
	if err := ev.Validate(); err != nil {
		e.metrics.EventsInvalid.Inc()
		return nil, err
	}
	e.metrics.EventsConsumed.Inc()

	if entry, fresh, ok := e.cache.Lookup(ev.LookupAttribute, ev.EventTime); ok && fresh {
		e.metrics.CacheLookups.WithLabelValues("hit").Inc()
		alerts := e.stampAlerts(entry.Alerts, ev)
		e.emit(ctx, ev, alerts)
		return alerts, nil
	}
	e.metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := e.flight.Do(ev.LookupAttribute, func() (interface{}, error) {
		return e.runCycle(ev)
	})
	if err != nil {
		return nil, err
	}
	alerts := e.stampAlerts(v.([]ValidatedAlert), ev)
	e.emit(ctx, ev, alerts)
	return alerts, nil
}

// stampAlerts rebinds cycle results to the event that asked for them. Cached
// alerts carry the keys of the event that ran the cycle; every consumer gets
// them restamped with its own identity.
func (e *Engine) stampAlerts(alerts []ValidatedAlert, ev EntityEvent) []ValidatedAlert {
	if len(alerts) == 0 {
		return nil
	}
	out := make([]ValidatedAlert, len(alerts))
	copy(out, alerts)
	for i := range out {
		out[i].EntityKey = ev.EntityKey
		out[i].LookupAttribute = ev.LookupAttribute
	}
	return out
}

func (e *Engine) emit(ctx context.Context, ev EntityEvent, alerts []ValidatedAlert) {
	if len(alerts) == 0 {
		return
	}
	// The sink layer counts its own write failures per sink name; the engine
	// only logs so a MultiSink failure is not double-counted.
	if err := e.sink.Emit(ctx, alerts); err != nil {
		e.logger.Error("alert emission failed",
			logging.String("entity_key", ev.EntityKey),
			logging.String("attribute", ev.LookupAttribute),
			logging.Int("alerts", len(alerts)),
			logging.Err(err))
		return
	}
	e.metrics.AlertsEmitted.Add(float64(len(alerts)))
}

// runCycle executes one full fetch→gate→dedup→validate cycle for the event's
// attribute and stores the outcome. The cycle runs under the engine's root
// context so a follower's cancellation cannot abort the leader's work.
func (e *Engine) runCycle(ev EntityEvent) ([]ValidatedAlert, error) {
	attribute := ev.LookupAttribute
	ctx, cancel := context.WithTimeout(e.rootCtx, e.cycleTimeout)
	defer cancel()

	e.metrics.CyclesStarted.Inc()
	e.metrics.CyclesInFlight.Inc()
	defer e.metrics.CyclesInFlight.Dec()
	start := time.Now()
	defer func() { e.metrics.CycleDuration.Observe(time.Since(start).Seconds()) }()

	log := e.logger.With(logging.String("attribute", attribute))

	candidates, err := e.fetchAll(ctx, log, attribute)
	if err != nil {
		return nil, err
	}

	gated := e.applyGate(candidates)
	deduped, dropped := DedupCandidates(gated)
	if dropped > 0 {
		e.metrics.DedupDropped.Add(float64(dropped))
	}

	alerts := e.validateAll(ctx, log, ev, deduped)

	// The cache write happens before any caller emits, so a crash between
	// the two loses at most one emission, never the freshness record.
	e.cache.Store(attribute, alerts, ev.EventTime)

	if e.reporter != nil {
		e.reporter.ReportCycle(ctx, CycleSummary{
			LookupAttribute: attribute,
			Candidates:      len(candidates),
			Alerts:          len(alerts),
			CheckedAt:       ev.EventTime,
		})
	}

	log.Info("cycle completed",
		logging.Int("candidates", len(candidates)),
		logging.Int("gated", len(gated)),
		logging.Int("deduped", len(deduped)),
		logging.Int("alerts", len(alerts)),
		logging.Duration("took", time.Since(start)))
	return alerts, nil
}

// fetchAll queries every fetcher in parallel, keeping results in fetcher
// registration order so downstream dedup is deterministic. It fails only
// when every source fails; in that case nothing is written to the cache and
// the next event for the attribute retries.
func (e *Engine) fetchAll(ctx context.Context, log logging.Logger, attribute string) ([]Candidate, error) {
	results := make([][]Candidate, len(e.fetchers))
	errs := make([]error, len(e.fetchers))

	var wg sync.WaitGroup
	for i, f := range e.fetchers {
		wg.Add(1)
		go func(i int, f Fetcher) {
			defer wg.Done()
			t0 := time.Now()
			cs, err := f.Fetch(ctx, attribute)
			e.metrics.FetchDuration.WithLabelValues(f.Name()).Observe(time.Since(t0).Seconds())
			if err != nil {
				e.metrics.FetchFailures.WithLabelValues(f.Name()).Inc()
				errs[i] = err
				log.Warn("source fetch failed",
					logging.String("source", f.Name()),
					logging.Err(err))
				return
			}
			for j := range cs {
				cs[j].SourceTag = f.Name()
			}
			e.metrics.CandidatesFetched.WithLabelValues(f.Name()).Add(float64(len(cs)))
			results[i] = cs
		}(i, f)
	}
	wg.Wait()

	anyOK := false
	var out []Candidate
	for i := range e.fetchers {
		if errs[i] == nil {
			anyOK = true
			out = append(out, results[i]...)
		}
	}
	if !anyOK {
		return nil, errors.New(errors.ErrCodeAllSourcesFailed,
			"all signal sources failed for attribute "+attribute)
	}
	return out, nil
}

// applyGate keeps candidates whose headline or description contains a risk
// term, stamping the matched term. Gate order decides MatchedKeyword when
// several terms are present.
func (e *Engine) applyGate(candidates []Candidate) []Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		kw, ok := e.gate.Match(c.Headline + " " + c.Description)
		if !ok {
			e.metrics.GateDecisions.WithLabelValues("drop").Inc()
			continue
		}
		e.metrics.GateDecisions.WithLabelValues("match").Inc()
		c.MatchedKeyword = kw
		out = append(out, c)
	}
	return out
}

// validateAll runs the validator over the deduplicated candidates with
// bounded concurrency, preserving candidate order in the result. Validation
// is fail-safe: an error is a drop, logged with full context, never an
// accept.
func (e *Engine) validateAll(ctx context.Context, log logging.Logger, ev EntityEvent, candidates []Candidate) []ValidatedAlert {
	if len(candidates) == 0 {
		return []ValidatedAlert{}
	}

	type verdict struct {
		ok bool
	}
	verdicts := make([]verdict, len(candidates))
	sem := make(chan struct{}, e.valWorkers)
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			t0 := time.Now()
			ok, err := e.validator.Validate(ctx, ev.EntityKey, ev.LookupAttribute, c)
			e.metrics.ValidateDuration.Observe(time.Since(t0).Seconds())
			switch {
			case err != nil:
				e.metrics.ValidatorCalls.WithLabelValues("error").Inc()
				log.Warn("validator call failed, dropping candidate",
					logging.String("headline", c.Headline),
					logging.String("keyword", c.MatchedKeyword),
					logging.Err(err))
			case ok:
				e.metrics.ValidatorCalls.WithLabelValues("pass").Inc()
				verdicts[i].ok = true
			default:
				e.metrics.ValidatorCalls.WithLabelValues("reject").Inc()
			}
		}(i, c)
	}
	wg.Wait()

	now := time.Now().UTC()
	alerts := make([]ValidatedAlert, 0, len(candidates))
	for i, c := range candidates {
		if !verdicts[i].ok {
			continue
		}
		alerts = append(alerts, ValidatedAlert{
			LookupAttribute: ev.LookupAttribute,
			ThreatType:      strings.ToLower(c.MatchedKeyword),
			Headline:        c.Headline,
			Description:     c.Description,
			Source:          c.SourceTag,
			ValidatedAt:     now,
		})
	}
	return alerts
}

//Personal.AI order the ending
