// Package http provides the HTTP surface of the service: the single action
// endpoint, health probes and the metrics server.
package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/actiongate/internal/config"
	"github.com/allisson/actiongate/internal/dispatch"
	"github.com/allisson/actiongate/internal/dispatch/dto"
	"github.com/allisson/actiongate/internal/metrics"
)

// maxBodyBytes bounds the action request body size.
const maxBodyBytes = 1 << 20 // 1 MiB

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates the API server with the action endpoint mounted.
func NewServer(
	cfg *config.Config,
	dispatcher *dispatch.Dispatcher,
	metricsProvider *metrics.Provider,
	logger *slog.Logger,
) *Server {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	// Health and readiness endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// The single action endpoint. Everything else is a dispatch decision.
	actionGroup := router.Group("/v1")
	if cfg.RateLimitEnabled {
		actionGroup.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}
	actionGroup.POST("/actions", actionHandler(dispatcher))

	// Non-POST requests to a known route get the normalized envelope.
	router.NoMethod(func(c *gin.Context) {
		c.JSON(
			http.StatusMethodNotAllowed,
			dto.NewErrorEnvelope(
				dto.ErrorKindMethodNotAllowed,
				dto.MessageMethodNotAllowed,
				nil,
				requestid.Get(c),
			),
		)
	})

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		logger: logger,
	}
}

// actionHandler adapts the dispatcher to gin.
func actionHandler(dispatcher *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(
				http.StatusBadRequest,
				dto.NewErrorEnvelope(
					dto.ErrorKindValidationError,
					"Invalid request envelope",
					map[string]any{"body": "failed to read request body"},
					requestid.Get(c),
				),
			)
			return
		}

		status, envelope := dispatcher.Dispatch(c.Request.Context(), &dispatch.Input{
			Method:        c.Request.Method,
			Authorization: c.GetHeader("Authorization"),
			Body:          body,
			RequestID:     requestid.Get(c),
		})
		c.JSON(status, envelope)
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
