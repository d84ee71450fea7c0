package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ezstream/internal/core/ports"
	"ezstream/internal/core/services"
	httphandlers "ezstream/internal/handlers/http"
	"ezstream/internal/infrastructure/events"
	"ezstream/internal/infrastructure/ezviz"
	"ezstream/internal/infrastructure/middleware"
	"ezstream/internal/infrastructure/monitoring"
	"ezstream/internal/infrastructure/profile"
	repositories "ezstream/internal/infrastructure/repositories"
	"ezstream/pkg/config"
	"ezstream/pkg/logger"
	"ezstream/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	cfg, cfgPath, err := config.LoadFirst(config.SearchPaths...)
	if err != nil {
		logger.New("info").Sugar().Fatalw("failed to load configuration", "error", err)
	}

	zapLogger := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	if cfgPath == "" {
		log.Infow("no config file found, using defaults", "searched", config.SearchPaths)
	} else {
		log.Infow("loaded configuration", "path", cfgPath)
	}
	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Falls back to memory when Redis is unreachable
	repoFactory := repositories.NewRepositoryFactory(ctx, cfg, log)
	sessionRepo := repoFactory.CreateSessionRepository()

	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)
	collector.StartSessionSampler(ctx, sessionRepo, 15*time.Second, log)

	tokenService := services.NewSessionTokenService(cfg.Session.Secret, cfg.Session.Issuer, sessionRepo)

	hub := events.NewHub(tokenService, log)
	hub.SetTimeouts(cfg.Events.PingInterval, cfg.Events.PongTimeout, cfg.Events.WriteTimeout)
	hub.SetMetrics(collector)
	publisher := events.Fanout{hub, collector}

	if client := repoFactory.RedisClient(); client != nil {
		bus := events.NewRedisBus(client, uuid.NewString(), events.DefaultChannel, log)
		publisher = append(publisher, bus)
		go func() {
			if err := bus.Subscribe(ctx, hub); err != nil && ctx.Err() == nil {
				log.Errorw("event relay stopped", "error", err)
			}
		}()
	}

	gateway := ezviz.NewClient(cfg.Ezviz.AuthURL, cfg.Ezviz.RequestTimeout, zapLogger, ezviz.WithMetrics(collector))

	authService := services.NewAuthService(gateway, publisher, zapLogger)
	streamService := services.NewStreamService(gateway, publisher, zapLogger)
	deviceService := services.NewDeviceService(gateway, zapLogger)

	healthChecker := monitoring.NewHealthChecker(log)
	healthChecker.AddCheck("session_store", func(ctx context.Context) (bool, error) {
		if err := repoFactory.HealthCheck(ctx); err != nil {
			return false, err
		}
		return true, nil
	}, 30*time.Second, 2*time.Second)
	healthChecker.StartBackgroundChecks(ctx)

	requireSession := middleware.AuthMiddleware(tokenService)
	registrars := []ports.RouteRegistrar{
		httphandlers.NewAuthHandler(authService, tokenService, requireSession),
		httphandlers.NewStreamHandler(streamService, deviceService, requireSession),
		httphandlers.NewProfileHandler(profile.NewFileStore(cfg.Profile.Path)),
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.AccessLogMiddleware(zapLogger))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.MetricsMiddleware(collector))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	router.Use(middleware.ErrorHandlerMiddleware(log))

	httphandlers.NewWebHandler(hub.HandleWebSocket).RegisterRoutes(&router.RouterGroup)

	api := router.Group("/api/v1")
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		checkCtx, checkCancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer checkCancel()

		status := healthChecker.CheckAll(checkCtx)
		store := "memory"
		if repoFactory.UsingRedis() {
			store = "redis"
		}
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":        status.Status,
			"timestamp":     status.Timestamp,
			"checks":        status.Checks,
			"session_store": store,
		})
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting ezstream server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down ezstream server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Websocket connections are hijacked and not closed by Shutdown
	hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("ezstream server stopped")
}
