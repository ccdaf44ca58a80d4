package http

import (
	"net/http"
	"time"

	"camwatch/internal/core/ports"
	"camwatch/internal/core/services"
	"camwatch/internal/infrastructure/middleware"
	"camwatch/internal/infrastructure/monitoring"
	"camwatch/pkg/config"
	"camwatch/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const rootBanner = "camwatch API is running"

// WorkerRoutes lists the routes served without the auth gate. They are meant
// for the analysis worker on a trusted network.
var WorkerRoutes = []string{
	"GET /worker/cameras",
	"POST /alerts",
}

// Router assembles the gin engines. Metrics, MetricsHandler and Health are
// optional.
type Router struct {
	Config      *config.Config
	AuthService services.AuthService

	Auth    *AuthHandler
	Cameras ports.CameraHTTPHandler
	Alerts  ports.AlertHTTPHandler
	Live    *LiveHandler

	Health         *monitoring.HealthChecker
	Metrics        *monitoring.PrometheusCollector
	MetricsHandler http.Handler

	Logger *zap.SugaredLogger

	startedAt time.Time
}

// SeparateWorker reports whether worker routes get their own listener.
func (r *Router) SeparateWorker() bool {
	return r.Config.Worker.Address != ""
}

// Engine builds the public engine. Worker routes are included only when no
// separate worker listener is configured.
func (r *Router) Engine() *gin.Engine {
	if r.startedAt.IsZero() {
		r.startedAt = time.Now()
	}

	engine := gin.New()
	r.useCommon(engine)
	if corsCfg, ok := r.corsConfig(); ok {
		engine.Use(cors.New(corsCfg))
	}
	engine.Use(middleware.ErrorHandlerMiddleware(r.Logger))
	// Worker routes stay unlimited whichever listener serves them.
	engine.Use(middleware.NewHTTPRateLimitMiddleware(r.Config, WorkerRoutes...))

	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, rootBanner)
	})
	r.registerHealthRoutes(engine)
	if r.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(r.MetricsHandler))
	}

	authGroup := engine.Group("/auth")
	{
		authGroup.POST("/register", r.Auth.Register)
		authGroup.POST("/login", r.Auth.Login)
		authGroup.GET("/me", middleware.AuthMiddleware(r.AuthService), r.Auth.Me)
	}

	cameras := engine.Group("/cameras")
	cameras.Use(middleware.AuthMiddleware(r.AuthService))
	{
		cameras.GET("", r.Cameras.ListCameras)
		cameras.POST("", r.Cameras.CreateCamera)
		cameras.GET("/:id", r.Cameras.GetCamera)
		cameras.PATCH("/:id", r.Cameras.UpdateCamera)
		cameras.DELETE("/:id", r.Cameras.DeleteCamera)
	}

	engine.GET("/alerts", middleware.AuthMiddleware(r.AuthService), r.Alerts.ListAlerts)
	engine.GET("/ws", r.Live.Serve)

	if !r.SeparateWorker() {
		r.registerWorkerRoutes(engine)
	}
	return engine
}

// WorkerEngine builds the engine for the internal worker listener, or nil
// when worker routes share the public listener.
func (r *Router) WorkerEngine() *gin.Engine {
	if !r.SeparateWorker() {
		return nil
	}
	if r.startedAt.IsZero() {
		r.startedAt = time.Now()
	}

	engine := gin.New()
	r.useCommon(engine)
	engine.Use(middleware.ErrorHandlerMiddleware(r.Logger))

	r.registerHealthRoutes(engine)
	r.registerWorkerRoutes(engine)
	return engine
}

func (r *Router) registerWorkerRoutes(engine *gin.Engine) {
	engine.GET("/worker/cameras", r.Cameras.ListWorkerCameras)
	engine.POST("/alerts", r.Alerts.SubmitAlert)
}

func (r *Router) useCommon(engine *gin.Engine) {
	if err := engine.SetTrustedProxies(r.Config.Server.TrustedProxies); err != nil {
		r.Logger.Warnw("Ignoring invalid trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(middleware.RecoveryMiddleware(r.Logger))
	engine.Use(middleware.RequestLogger(logger.NewContextLogger(r.Logger.Desugar())))
	engine.Use(middleware.TracingMiddleware())
	if r.Metrics != nil {
		engine.Use(r.Metrics.HTTPMiddleware())
	}
}

func (r *Router) registerHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    monitoring.StatusHealthy,
			"timestamp": time.Now().UTC(),
			"uptime":    time.Since(r.startedAt).String(),
		})
	})

	engine.GET("/ready", func(c *gin.Context) {
		if r.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": monitoring.StatusHealthy})
			return
		}
		status := r.Health.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != monitoring.StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// corsConfig reports false when no browser origin is allowed.
func (r *Router) corsConfig() (cors.Config, bool) {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	origins := r.Config.Auth.AllowedOrigins
	if len(origins) == 0 {
		return cfg, false
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg, true
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg, true
}
