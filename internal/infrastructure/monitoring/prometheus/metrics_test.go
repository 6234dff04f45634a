package prometheus

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersFamilies(t *testing.T) {
	m := NewMetrics("riskwatch")

	m.EventsConsumed.Inc()
	m.CacheLookups.WithLabelValues("hit").Inc()
	m.CacheLookups.WithLabelValues("miss").Add(2)
	m.FetchFailures.WithLabelValues("gnews").Inc()
	m.SinkWriteFailures.WithLabelValues("csv").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkWriteFailures.WithLabelValues("csv")))
}

func TestMetricsIndependentRegistries(t *testing.T) {
	// Two instances must not collide (private registries).
	require.NotPanics(t, func() {
		_ = NewMetrics("riskwatch")
		_ = NewMetrics("riskwatch")
	})
}

func TestMetricsHandlerServesExposition(t *testing.T) {
	m := NewMetrics("riskwatch")
	m.AlertsEmitted.Inc()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), "riskwatch_alerts_emitted_total 1")
}
