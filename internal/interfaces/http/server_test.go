package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/riskwatch/internal/sink"
)

func doRequest(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h := NewRouter(RouterConfig{})
	w := doRequest(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadyz(t *testing.T) {
	ready := false
	h := NewRouter(RouterConfig{Ready: func() bool { return ready }})

	w := doRequest(h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready = true
	w = doRequest(h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyzDefaultsToReady(t *testing.T) {
	h := NewRouter(RouterConfig{})
	w := doRequest(h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := prometheus.NewMetrics("riskwatch")
	m.AlertsEmitted.Inc()
	h := NewRouter(RouterConfig{Metrics: m})

	w := doRequest(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "riskwatch_alerts_emitted_total 1")
}

func TestRecentAlerts(t *testing.T) {
	ring := sink.NewRingSink(8)
	require.NoError(t, ring.Emit(context.Background(), []risk.ValidatedAlert{
		{EntityKey: "Acme Corp", ThreatType: "strike", Headline: "older"},
		{EntityKey: "Acme Corp", ThreatType: "flood", Headline: "newer"},
	}))

	h := NewRouter(RouterConfig{Alerts: ring})
	w := doRequest(h, http.MethodGet, "/api/v1/alerts/recent")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Alerts []risk.ValidatedAlert `json:"alerts"`
		Count  int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "newer", body.Alerts[0].Headline)
	assert.Equal(t, "older", body.Alerts[1].Headline)
}

func TestRecentAlertsLimit(t *testing.T) {
	ring := sink.NewRingSink(8)
	require.NoError(t, ring.Emit(context.Background(), []risk.ValidatedAlert{
		{Headline: "one"}, {Headline: "two"}, {Headline: "three"},
	}))

	h := NewRouter(RouterConfig{Alerts: ring})
	w := doRequest(h, http.MethodGet, "/api/v1/alerts/recent?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doRequest(h, http.MethodGet, "/api/v1/alerts/recent?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(h, http.MethodGet, "/api/v1/alerts/recent?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecentAlertsNoBackend(t *testing.T) {
	h := NewRouter(RouterConfig{})
	w := doRequest(h, http.MethodGet, "/api/v1/alerts/recent")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alerts":[],"count":0}`, w.Body.String())
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(0, RouterConfig{})
	// port 0 is not supported by ListenAndServe addr string; exercise
	// Stop on an unstarted server instead, which must not hang
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.NotNil(t, s.Handler())
}

//Personal.AI order the ending
