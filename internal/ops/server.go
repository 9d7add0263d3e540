package ops

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server exposes the worker's health and metrics endpoints.
type Server struct {
	worker  string
	metrics *Metrics
	logger  *slog.Logger
	srv     *http.Server
}

// NewServer creates an ops Server for the named worker.
func NewServer(worker, port string, metrics *Metrics, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		worker:  worker,
		metrics: metrics,
		logger:  logger,
	}

	router.GET("/health", s.healthCheck)
	router.GET("/metrics", s.metricsSnapshot)

	s.srv = &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}
	return s
}

// Start serves until Shutdown. Listen failures are logged, not fatal; the
// consumer keeps running without the ops endpoint.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops server listen failed", slog.Any("error", err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": s.worker + " healthy",
		"data":    gin.H{"status": "ok"},
	})
}

func (s *Server) metricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": s.worker + " metrics snapshot",
		"data":    s.metrics.Snapshot(),
	})
}
