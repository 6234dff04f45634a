// Package http exposes the monitor's operational surface: liveness,
// readiness, Prometheus metrics, and a recent-alerts view backed by the
// in-memory ring sink.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/prometheus"
)

// RecentAlerts is the read-side view the alerts endpoint serves from.
type RecentAlerts interface {
	Recent(n int) []risk.ValidatedAlert
}

// RouterConfig aggregates the ops server's dependencies.
type RouterConfig struct {
	Metrics *prometheus.Metrics
	Alerts  RecentAlerts

	// Ready reports whether the pipeline is accepting events. Nil means
	// always ready.
	Ready func() bool

	// Mode selects the gin mode: "debug", "release" or "test".  Empty
	// means release.
	Mode string

	// ReadTimeout and WriteTimeout bound request handling; zero values
	// fall back to 15s.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger logging.Logger
}

// NewRouter builds the gin route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	switch cfg.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		if cfg.Ready != nil && !cfg.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/alerts/recent", func(c *gin.Context) {
			n := 50
			if raw := c.Query("limit"); raw != "" {
				if _, err := fmt.Sscanf(raw, "%d", &n); err != nil || n <= 0 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
					return
				}
			}
			var alerts []risk.ValidatedAlert
			if cfg.Alerts != nil {
				alerts = cfg.Alerts.Recent(n)
			}
			if alerts == nil {
				alerts = []risk.ValidatedAlert{}
			}
			c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
		})
	}

	return r
}

// Server wraps the ops HTTP server lifecycle.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

// NewServer binds the router to the given port.
func NewServer(port int, cfg RouterConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}
	return &Server{
		logger: logger.Named("http"),
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      NewRouter(cfg),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("ops server listening", logging.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("ops server stopped")
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

//Personal.AI order the ending
