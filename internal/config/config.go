package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string
	BaseURL     string
	LogLevel    string
	SentryDSN   string

	// Database
	DBDriver    string
	DatabaseURL string

	// Storage
	StorageDriver   string
	UploadDir       string
	UploadURLPrefix string

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	S3PublicURL string

	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// Auth
	JWTSecret           string
	JWTExpiry           time.Duration
	RegistrationEnabled bool
	AuthRateLimit       int

	// Uploads
	MaxUploadMB       int
	ImageMaxDimension int

	// Orphan sweep
	OrphanSweepSchedule string
	OrphanGracePeriod   time.Duration
	OrphanSweepDryRun   bool
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL: getEnv("DATABASE_URL", "./data/site.db"),

		StorageDriver:   getEnv("STORAGE_DRIVER", "local"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		UploadURLPrefix: getEnv("UPLOAD_URL_PREFIX", "/uploads"),

		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "uploads"),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpiry:           getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		RegistrationEnabled: getEnvBool("REGISTRATION_ENABLED", false),
		AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 10),

		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 10),
		ImageMaxDimension: getEnvInt("IMAGE_MAX_DIMENSION", 1920),

		OrphanSweepSchedule: getEnv("ORPHAN_SWEEP_SCHEDULE", ""),
		OrphanGracePeriod:   getEnvDuration("ORPHAN_GRACE_PERIOD", time.Hour),
		OrphanSweepDryRun:   getEnvBool("ORPHAN_SWEEP_DRY_RUN", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.StorageDriver {
	case "local":
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for local storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	case "supabase":
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for supabase storage")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required for supabase storage")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be local, s3 or supabase, got %q", c.StorageDriver)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PublicFileBase is the prefix joined with a stored file reference to build
// its public URL.
func (c *Config) PublicFileBase() string {
	switch c.StorageDriver {
	case "s3":
		if c.S3PublicURL != "" {
			return strings.TrimSuffix(c.S3PublicURL, "/")
		}
		if c.S3Endpoint != "" {
			return strings.TrimSuffix(c.S3Endpoint, "/") + "/" + c.S3Bucket
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.S3Bucket, c.S3Region)
	case "supabase":
		return fmt.Sprintf("%s/storage/v1/object/public/%s", strings.TrimSuffix(c.SupabaseURL, "/"), c.SupabaseStorageBucket)
	default:
		return strings.TrimSuffix(c.UploadURLPrefix, "/")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
