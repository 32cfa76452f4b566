package app

import (
	"context"
	"fmt"
	"log/slog"

	"coaching-site-backend/internal/config"
	"coaching-site-backend/internal/storage"
)

// newFileStore picks the storage backend named by STORAGE_DRIVER.
func newFileStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case "local":
		return storage.NewLocal(cfg.UploadDir)
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		}, logger)
	case "supabase":
		return storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
