// Package app wires configuration, storage, the resource lifecycles and the
// HTTP router into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"coaching-site-backend/docs"
	"coaching-site-backend/internal/auth"
	"coaching-site-backend/internal/config"
	"coaching-site-backend/internal/database"
	"coaching-site-backend/internal/media"
	"coaching-site-backend/internal/metrics"
	"coaching-site-backend/internal/reconcile"
	"coaching-site-backend/internal/resource"
)

// App represents the main application
type App struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sqlx.DB
	sweeper *reconcile.Sweeper
	router  *gin.Engine
	server  *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	configureDocs(cfg.BaseURL)

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, cfg.DBDriver, logger); err != nil {
		db.Close()
		return nil, err
	}

	files, err := newFileStore(ctx, cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	m := metrics.New()
	store := database.NewSQLStore(db)
	deps := resource.Deps{
		Store:     store,
		Files:     files,
		FileBase:  cfg.PublicFileBase(),
		Processor: media.NewProcessor(cfg.ImageMaxDimension),
		Logger:    logger,
		Metrics:   m,
	}

	var sources []reconcile.Source
	collections := make([]*resource.Lifecycle, 0, len(resource.Collections()))
	for _, desc := range resource.Collections() {
		lc := resource.NewLifecycle(desc, deps)
		collections = append(collections, lc)
		sources = append(sources, lc)
	}
	singletons := make([]*resource.Singleton, 0, len(resource.Singletons()))
	for _, desc := range resource.Singletons() {
		s := resource.NewSingleton(desc, deps)
		singletons = append(singletons, s)
		sources = append(sources, s)
	}

	authService := auth.NewService(auth.NewAdminRepository(db), auth.Options{
		Secret:              cfg.JWTSecret,
		Expiry:              cfg.JWTExpiry,
		RegistrationEnabled: cfg.RegistrationEnabled,
	}, logger)

	sweeper := reconcile.NewSweeper(files, sources, reconcile.Options{
		GracePeriod: cfg.OrphanGracePeriod,
		DryRun:      cfg.OrphanSweepDryRun,
	}, logger, m)

	r := routes{
		logger:      logger,
		metrics:     m,
		health:      store,
		auth:        authService,
		authLimit:   cfg.AuthRateLimit,
		sweeper:     sweeper,
		collections: collections,
		singletons:  singletons,
		maxBytes:    int64(cfg.MaxUploadMB) << 20,
	}
	if cfg.StorageDriver == "local" {
		r.staticPrefix = cfg.UploadURLPrefix
		r.staticDir = cfg.UploadDir
	}
	router := newRouter(r)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		sweeper: sweeper,
		router:  router,
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// configureDocs points the Swagger host at the public base URL.
func configureDocs(baseURL string) {
	if baseURL == "" {
		return
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return
	}
	docs.SwaggerInfo.Host = u.Host
	if u.Scheme == "https" {
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	}
}

// Handler is the application's HTTP handler.
func (app *App) Handler() http.Handler {
	return app.router
}

// Start starts the application server
func (app *App) start() error {
	if err := app.sweeper.Start(app.config.OrphanSweepSchedule); err != nil {
		return err
	}

	app.logger.Info("starting server", "port", app.config.Port, "environment", app.config.Environment)

	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application
func (app *App) stop() error {
	app.logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server forced to shutdown", "error", err)
		return err
	}

	app.logger.Info("server exited gracefully")
	return nil
}

// Close stops the sweep schedule and releases the database.
func (app *App) Close() error {
	app.sweeper.Stop()
	return app.db.Close()
}

// Run starts the application and waits for shutdown signals
func (app *App) Run() error {
	if err := app.start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	return app.stop()
}
