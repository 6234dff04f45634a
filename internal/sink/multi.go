package sink

import (
	"context"
	"sync"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/riskwatch/pkg/errors"
)

// namedSink pairs a sink with its metrics label.
type namedSink struct {
	name string
	sink risk.AlertSink
}

// MultiSink fans each batch out to every registered sink. A sink failure is
// logged and counted but does not stop delivery to the others; Emit errors
// only when every sink failed, matching the engine's contract that emission
// problems never abort processing.
type MultiSink struct {
	sinks   []namedSink
	logger  logging.Logger
	metrics *prometheus.Metrics
}

// NewMultiSink builds the fan-out. At least one sink is required.
func NewMultiSink(logger logging.Logger, metrics *prometheus.Metrics) *MultiSink {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MultiSink{logger: logger.Named("sink"), metrics: metrics}
}

// Add registers a sink under a stable name used as the metrics label.
func (m *MultiSink) Add(name string, s risk.AlertSink) {
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
}

// Emit implements risk.AlertSink.
func (m *MultiSink) Emit(ctx context.Context, alerts []risk.ValidatedAlert) error {
	if len(alerts) == 0 || len(m.sinks) == 0 {
		return nil
	}
	failed := 0
	for _, ns := range m.sinks {
		if err := ns.sink.Emit(ctx, alerts); err != nil {
			failed++
			if m.metrics != nil {
				m.metrics.SinkWriteFailures.WithLabelValues(ns.name).Inc()
			}
			m.logger.Error("sink emission failed",
				logging.String("sink", ns.name),
				logging.Int("alerts", len(alerts)),
				logging.Err(err))
		}
	}
	if failed == len(m.sinks) {
		return errors.New(errors.ErrCodeSinkWriteFailed, "all sinks failed")
	}
	return nil
}

// RingSink keeps the most recent alerts in memory for the ops API's
// recent-alerts endpoint.
type RingSink struct {
	mu   sync.RWMutex
	buf  []risk.ValidatedAlert
	next int
	full bool
}

// NewRingSink builds a ring holding up to capacity alerts.
func NewRingSink(capacity int) *RingSink {
	if capacity <= 0 {
		capacity = 128
	}
	return &RingSink{buf: make([]risk.ValidatedAlert, capacity)}
}

// Emit implements risk.AlertSink. It never fails.
func (r *RingSink) Emit(ctx context.Context, alerts []risk.ValidatedAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range alerts {
		r.buf[r.next] = a
		r.next = (r.next + 1) % len(r.buf)
		if r.next == 0 {
			r.full = true
		}
	}
	return nil
}

// Recent returns up to n alerts, newest first.
func (r *RingSink) Recent(n int) []risk.ValidatedAlert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	size := r.next
	if r.full {
		size = len(r.buf)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]risk.ValidatedAlert, 0, n)
	for i := 0; i < n; i++ {
		idx := (r.next - 1 - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// interface guards
var (
	_ risk.AlertSink = (*MultiSink)(nil)
	_ risk.AlertSink = (*RingSink)(nil)
)

//Personal.AI order the ending
