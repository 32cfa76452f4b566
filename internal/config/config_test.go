package config_test

import (
	"testing"
	"time"

	"coaching-site-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.RegistrationEnabled)
	assert.Equal(t, "/uploads", cfg.PublicFileBase())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_TypedOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REGISTRATION_ENABLED", "true")
	t.Setenv("MAX_UPLOAD_MB", "3")
	t.Setenv("IMAGE_MAX_DIMENSION", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.RegistrationEnabled)
	assert.Equal(t, 3, cfg.MaxUploadMB)
	assert.Equal(t, 1920, cfg.ImageMaxDimension)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			JWTSecret:     "secret",
			DBDriver:      "sqlite",
			DatabaseURL:   "site.db",
			StorageDriver: "local",
			UploadDir:     "uploads",
			MaxUploadMB:   10,
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.DBDriver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.StorageDriver = "s3"
	assert.ErrorContains(t, cfg.Validate(), "S3_BUCKET")

	cfg = base()
	cfg.StorageDriver = "supabase"
	cfg.SupabaseURL = "https://x.supabase.co"
	assert.ErrorContains(t, cfg.Validate(), "SUPABASE_SERVICE_KEY")

	cfg = base()
	cfg.Environment = "production"
	assert.ErrorContains(t, cfg.Validate(), "32 characters")
}

func TestPublicFileBase(t *testing.T) {
	cfg := &config.Config{StorageDriver: "s3", S3Bucket: "site", S3Region: "eu-west-1"}
	assert.Equal(t, "https://site.s3.eu-west-1.amazonaws.com", cfg.PublicFileBase())

	cfg.S3Endpoint = "http://localhost:9000/"
	assert.Equal(t, "http://localhost:9000/site", cfg.PublicFileBase())

	cfg = &config.Config{StorageDriver: "supabase", SupabaseURL: "https://abc.supabase.co/", SupabaseStorageBucket: "uploads"}
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/uploads", cfg.PublicFileBase())
}
