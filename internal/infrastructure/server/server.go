// Package server wires the retry manager, its observability, and the admin
// HTTP surface into a runnable service.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/coalesceio/resilient/internal/api/http"
	"github.com/coalesceio/resilient/internal/api/middleware"
	"github.com/coalesceio/resilient/internal/infrastructure/config"
	"github.com/coalesceio/resilient/internal/infrastructure/monitoring"
	"github.com/coalesceio/resilient/internal/infrastructure/resilience"
	"github.com/coalesceio/resilient/internal/logging"
)

// Server hosts the admin surface for a retry manager
type Server struct {
	router  *gin.Engine
	httpSrv *http.Server
	manager *resilience.Manager
	metrics *monitoring.Metrics
	logger  *logging.Logger
	config  *config.Config
}

// New creates a server and its retry manager
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		var err error
		logger, err = logging.New(logging.Config{Level: cfg.Logging.Level})
		if err != nil {
			logger = logging.NewDefault()
		}
	}

	logger.Info("initializing resilient-execution service",
		zap.String("port", cfg.Server.Port),
		zap.Int("max_attempts", cfg.Retry.MaxAttempts),
		zap.Int("breaker_threshold", cfg.Retry.BreakerThreshold),
	)

	metrics := monitoring.New()

	manager := resilience.NewManager(cfg.RetryDefaults(),
		resilience.WithLogger(logger.Logger),
		resilience.WithMetrics(metrics),
	)

	srv := &Server{
		manager: manager,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
	}
	srv.setupRouter()

	return srv, nil
}

// Manager returns the retry manager for embedding applications
func (s *Server) Manager() *resilience.Manager {
	return s.manager
}

func (s *Server) setupRouter() {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(nil))

	if s.config.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	handlers := apihttp.NewCircuitHandlers(s.manager, s.logger)
	router.GET("/circuits", handlers.List)
	router.POST("/circuits/reset", handlers.ResetAll)
	router.POST("/circuits/:name/reset", handlers.Reset)

	s.router = router
}

// Run starts the admin HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("admin surface listening", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight admin requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
