package app

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"coaching-site-backend/internal/auth"
	"coaching-site-backend/internal/handlers"
	"coaching-site-backend/internal/metrics"
	"coaching-site-backend/internal/middleware"
	"coaching-site-backend/internal/reconcile"
	"coaching-site-backend/internal/resource"
)

type routes struct {
	logger      *slog.Logger
	metrics     *metrics.Metrics
	health      handlers.Pinger
	auth        *auth.Service
	authLimit   int
	sweeper     *reconcile.Sweeper
	collections []*resource.Lifecycle
	singletons  []*resource.Singleton
	maxBytes    int64

	// staticDir is served at staticPrefix when files are stored locally.
	staticPrefix string
	staticDir    string
}

func newRouter(r routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(r.logger))
	router.Use(middleware.Metrics(r.metrics))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check and metrics (no auth)
	router.GET("/health", handlers.HealthHandler(r.health))
	router.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	if r.staticDir != "" {
		router.Static(r.staticPrefix, r.staticDir)
	}

	api := router.Group("/api/v1")
	admin := api.Group("", middleware.AuthMiddleware(r.auth))

	// Auth routes are rate limited per client IP
	authHandler := handlers.NewAuthHandler(r.auth, r.logger)
	authRoutes := api.Group("/auth", middleware.RateLimit(middleware.NewIPRateLimiter(r.authLimit)))
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)

	for _, lc := range r.collections {
		h := handlers.NewResourceHandler(lc, r.maxBytes, r.logger)
		path := "/" + lc.Descriptor().Path
		api.GET(path, h.List)
		api.GET(path+"/:id", h.Get)
		admin.POST(path, h.Create)
		admin.PUT(path+"/:id", h.Update)
		admin.DELETE(path+"/:id", h.Delete)
	}

	for _, s := range r.singletons {
		h := handlers.NewSingletonHandler(s, r.maxBytes, r.logger)
		path := "/" + s.Descriptor().Path
		api.GET(path, h.Get)
		admin.PUT(path, h.Replace)
		admin.DELETE(path, h.Clear)
	}

	maintenance := handlers.NewMaintenanceHandler(r.sweeper, r.logger)
	admin.POST("/maintenance/sweep", maintenance.Sweep)

	return router
}
