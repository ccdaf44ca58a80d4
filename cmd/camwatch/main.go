package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camwatch/internal/core/services"
	httphandlers "camwatch/internal/handlers/http"
	"camwatch/internal/infrastructure/broadcast"
	"camwatch/internal/infrastructure/monitoring"
	"camwatch/internal/infrastructure/repositories"
	"camwatch/pkg/config"
	"camwatch/pkg/logger"
	"camwatch/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// A missing .env is fine; the environment may be set by the supervisor.
	_ = godotenv.Load()

	cfg, cfgPath, err := config.LoadFirst(config.DefaultPaths)
	if err != nil {
		// Logger config is not known yet.
		zl := logger.New("info", "json")
		zl.Sugar().Fatalw("Failed to load configuration", "error", err)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if cfgPath == "" {
		log.Infow("No config file found, using defaults and environment")
	} else {
		log.Infow("Loaded configuration", "path", cfgPath)
	}
	if cfg.Auth.JWTSecret == config.DefaultConfig().Auth.JWTSecret {
		log.Warnw("Using the default JWT secret; set CAMWATCH_JWT_SECRET")
	}

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("Failed to initialize tracing", "error", err)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), time.Minute)
	repoFactory, err := repositories.NewRepositoryFactory(startupCtx, cfg, log)
	if err != nil {
		startupCancel()
		log.Fatalw("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := monitoring.NewPrometheusCollector(registry)

	// Broadcast hub
	hubCfg := broadcast.Config{
		PingInterval:   cfg.Hub.PingInterval,
		PongTimeout:    cfg.Hub.PongTimeout,
		WriteTimeout:   cfg.Hub.WriteTimeout,
		SendBuffer:     cfg.Hub.SendBuffer,
		MaxMessageSize: cfg.RateLimiting.WebSocket.MaxMessageSizeBytes,
		MaxViewers:     cfg.RateLimiting.WebSocket.MaxConcurrent,
	}
	hub := broadcast.NewHub(hubCfg, collector, log)

	// Services
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	credentialService := services.NewCredentialService(repoFactory.UserRepository(), cfg.Auth.BcryptCost, log)
	cameraService := services.NewCameraService(repoFactory.CameraRepository(), log)
	alertService := services.NewAlertService(repoFactory.AlertRepository(), hub, log)

	admin := cfg.Auth.BootstrapAdmin
	if created, err := credentialService.EnsureAdmin(startupCtx, admin.Username, admin.Password); err != nil {
		startupCancel()
		log.Fatalw("Failed to seed bootstrap admin", "error", err)
	} else if created {
		log.Infow("Bootstrap admin created", "username", admin.Username)
	}
	startupCancel()

	health := monitoring.NewHealthChecker()
	health.AddCheck("storage", repoFactory.HealthCheck, 2*time.Second)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := &httphandlers.Router{
		Config:      cfg,
		AuthService: authService,
		Auth:        httphandlers.NewAuthHandler(authService, credentialService),
		Cameras:     httphandlers.NewCameraHandler(cameraService),
		Alerts:      httphandlers.NewAlertHandler(alertService),
		Live:        httphandlers.NewLiveHandler(hub, cfg.Auth.AllowedOrigins, log),
		Health:      health,
		Metrics:     collector,
		Logger:      log,
	}
	if cfg.Monitoring.PrometheusEnabled {
		router.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
		log.Info("Prometheus metrics enabled")
	}

	servers := []*http.Server{{
		Addr:         cfg.Server.Address,
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}}
	workerListener := cfg.Server.Address
	if workerEngine := router.WorkerEngine(); workerEngine != nil {
		workerListener = cfg.Worker.Address
		servers = append(servers, &http.Server{
			Addr:         cfg.Worker.Address,
			Handler:      workerEngine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		})
	}
	log.Warnw("Worker routes are served without authentication; restrict this listener to the worker network",
		"routes", httphandlers.WorkerRoutes,
		"listener", workerListener,
	)

	serverErr := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Infow("Starting camwatch server", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}(srv)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Errorw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down camwatch...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("Error during server shutdown", "address", srv.Addr, "error", err)
			if closeErr := srv.Close(); closeErr != nil {
				log.Errorw("Error force closing server", "address", srv.Addr, "error", closeErr)
			}
		}
	}

	// Live connections are hijacked and not covered by srv.Shutdown.
	if err := hub.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down broadcast hub", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing storage", "error", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("camwatch stopped")
}
