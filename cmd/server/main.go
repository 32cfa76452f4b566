// @title           Coaching Site Backend API
// @version         1.0.0
// @description     Content API for a coaching institute website: banners, courses, testimonials, students, announcements, timetables, blog posts, documents and site settings, each with an optional uploaded file kept consistent with its row.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"log"
	"os"

	"coaching-site-backend/internal/app"
	"coaching-site-backend/internal/config"
	"coaching-site-backend/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.Environment, cfg.LogLevel, cfg.SentryDSN)

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
