package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/growzapp/gateway/config"
	"github.com/growzapp/gateway/internal/api"
	"github.com/growzapp/gateway/internal/core/domain"
	"github.com/growzapp/gateway/internal/core/repository"
	logicv1 "github.com/growzapp/gateway/internal/logic/v1"
	webv1 "github.com/growzapp/gateway/internal/web/v1"
	"github.com/growzapp/gateway/middleware"
	"github.com/growzapp/gateway/pkg/logger"
)

const (
	loginPath = "/login"
	homePath  = "/"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	// Initialize Zerolog with LOG_LEVEL from config
	logger.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Open the durable client-state store (SQLite)
	store, err := repository.NewSQLiteStateStore(cfg.State.DBPath, cfg.State.SealKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open state store")
	}
	defer store.Close()
	log.Info().Str("path", cfg.State.DBPath).Msg("State store opened")

	// Session state, then the backend client reading its token freshly
	sessions := logicv1.NewSessionService(store)

	client, err := api.New(api.Config{
		BaseURL:          cfg.Upstream.BaseURL,
		Root:             cfg.Upstream.Root,
		Tokens:           sessions,
		HTTPClient:       &http.Client{Timeout: cfg.GetUpstreamTimeoutDuration()},
		DropSessionOn401: cfg.Upstream.DropSessionOn401,
		Dropper:          sessions,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create backend client")
	}

	platform := logicv1.NewPlatformService(client)
	currency := logicv1.NewCurrencyService(store, platform,
		domain.CurrencyCode(cfg.Currency.Base), cfg.Currency.Locale)

	// Restore persisted state before any guard decision can be made
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sessions.Restore(startupCtx); err != nil {
		log.Warn().Err(err).Msg("Session restore degraded, starting anonymous")
	}
	currency.Restore(startupCtx)
	cancelStartup()
	log.Info().
		Str("session_state", sessions.State().String()).
		Str("currency", string(currency.Selected())).
		Msg("Client state restored")

	// Best-effort rate refresh; formatting works on seed rates until then
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		currency.RefreshRates(ctx)
	}()

	r := gin.Default()

	var isShuttingDown atomic.Bool

	// Tracing middleware
	r.Use(middleware.TracingMiddleware(cfg.Service.Name))

	// Logging middleware
	r.Use(middleware.LoggingMiddleware())

	// Prometheus middleware
	r.Use(middleware.PrometheusMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		if !sessions.State().Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "restoring"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (canonical API - frontend-aligned)
	apiV1 := r.Group("/api/v1")
	authed := apiV1.Group("", middleware.RequireSession(sessions, loginPath))
	admin := apiV1.Group("/admin", middleware.RequireRole(sessions, "ADMIN", loginPath, homePath))

	handler := webv1.NewHandler(sessions, currency, platform)
	handler.RegisterRoutes(apiV1, authed, admin)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting gateway")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation before HTTP shutdown.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Close the state store
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("State store close error")
	} else {
		log.Info().Msg("State store closed")
	}

	// 3. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Graceful tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
