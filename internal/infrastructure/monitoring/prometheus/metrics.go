// Package prometheus exposes the pipeline's Prometheus metric families.
// All stages of the risk-detection engine report here so that the required
// operational signals (sink failures in particular) are observable rather
// than swallowed.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default duration buckets, in seconds.
var (
	DefaultFetchDurationBuckets    = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20}
	DefaultValidateDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10}
	DefaultCycleDurationBuckets    = []float64{.1, .5, 1, 5, 10, 30, 60, 120}
)

// Metrics holds every metric family emitted by the pipeline.
//
// Label conventions:
//   - source:  fetcher source tag ("gnews", "synthetic", "rss")
//   - result:  "hit"/"miss" for cache, "pass"/"reject"/"error" for validation
//   - sink:    sink name ("csv", "kafka")
type Metrics struct {
	EventsConsumed    prometheus.Counter
	EventsInvalid     prometheus.Counter
	CacheLookups      *prometheus.CounterVec // result
	CyclesStarted     prometheus.Counter
	CyclesInFlight    prometheus.Gauge
	CycleDuration     prometheus.Histogram
	FetchDuration     *prometheus.HistogramVec // source
	FetchFailures     *prometheus.CounterVec   // source
	CandidatesFetched *prometheus.CounterVec   // source
	GateDecisions     *prometheus.CounterVec   // result ("match"/"drop")
	DedupDropped      prometheus.Counter
	ValidatorCalls    *prometheus.CounterVec // result
	ValidateDuration  prometheus.Histogram
	AlertsEmitted     prometheus.Counter
	SinkWriteFailures *prometheus.CounterVec // sink

	registry *prometheus.Registry
}

// NewMetrics registers every pipeline metric family on a fresh registry and
// returns the populated Metrics.  The registry is private so tests can
// construct as many instances as they like without duplicate-registration
// panics.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}
	}

	m := &Metrics{registry: reg}

	m.EventsConsumed = prometheus.NewCounter(factory("events_consumed_total", "Entity events consumed from the stream source."))
	m.EventsInvalid = prometheus.NewCounter(factory("events_invalid_total", "Entity events rejected before dispatch (missing key or attribute)."))
	m.CacheLookups = prometheus.NewCounterVec(factory("cache_lookups_total", "Risk cache lookups by result."), []string{"result"})
	m.CyclesStarted = prometheus.NewCounter(factory("cycles_started_total", "Fetch cycles started."))
	m.CyclesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "cycles_in_flight", Help: "Fetch cycles currently executing."})
	m.CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "cycle_duration_seconds", Help: "End-to-end fetch cycle duration.", Buckets: DefaultCycleDurationBuckets})
	m.FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "fetch_duration_seconds", Help: "Per-source fetch duration.", Buckets: DefaultFetchDurationBuckets}, []string{"source"})
	m.FetchFailures = prometheus.NewCounterVec(factory("fetch_failures_total", "Per-source fetch failures."), []string{"source"})
	m.CandidatesFetched = prometheus.NewCounterVec(factory("candidates_fetched_total", "Raw candidates returned per source."), []string{"source"})
	m.GateDecisions = prometheus.NewCounterVec(factory("gate_decisions_total", "Keyword gate decisions."), []string{"result"})
	m.DedupDropped = prometheus.NewCounter(factory("dedup_dropped_total", "Candidates dropped as duplicate headlines within a cycle."))
	m.ValidatorCalls = prometheus.NewCounterVec(factory("validator_calls_total", "Validator invocations by result."), []string{"result"})
	m.ValidateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "validate_duration_seconds", Help: "Validator call duration.", Buckets: DefaultValidateDurationBuckets})
	m.AlertsEmitted = prometheus.NewCounter(factory("alerts_emitted_total", "Validated alerts emitted to sinks."))
	m.SinkWriteFailures = prometheus.NewCounterVec(factory("sink_write_failures_total", "Alert sink write failures by sink."), []string{"sink"})

	reg.MustRegister(
		m.EventsConsumed, m.EventsInvalid, m.CacheLookups,
		m.CyclesStarted, m.CyclesInFlight, m.CycleDuration,
		m.FetchDuration, m.FetchFailures, m.CandidatesFetched,
		m.GateDecisions, m.DedupDropped,
		m.ValidatorCalls, m.ValidateDuration,
		m.AlertsEmitted, m.SinkWriteFailures,
	)

	return m
}

// Handler returns the HTTP handler serving this registry, mounted on the
// ops server's /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

//Personal.AI order the ending
