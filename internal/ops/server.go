// Package ops serves liveness, readiness, and metrics endpoints beside
// an ingestion run. It is a scrape target for Prometheus and a probe
// target for the process supervisor, not a query API.
package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Database is the connectivity surface the probes check.
type Database interface {
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

// Server exposes /healthz, /readyz, and /metrics.
type Server struct {
	pool      Database
	log       *logrus.Logger
	version   string
	startTime time.Time
	engine    *gin.Engine
}

// New creates an ops Server.
func New(pool Database, log *logrus.Logger, version string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		pool:      pool,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}

	r := gin.New()
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(gin.Recovery())

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = r

	return s
}

// healthResponse is the JSON payload returned by the liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	if err := s.pool.Ping(ctx); err != nil {
		dbStatus = "down"
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       s.version,
		Database:      dbStatus,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.pool.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("ops server shutdown")
		}
	}()

	s.log.WithField("addr", addr).Info("ops server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
