package storage

import (
	"context"
	"fmt"

	"github.com/phenrril/catalogsync/internal/adapters/storage/cloudinary"
	"github.com/phenrril/catalogsync/internal/adapters/storage/localfs"
	"github.com/phenrril/catalogsync/internal/adapters/storage/s3"
	"github.com/phenrril/catalogsync/internal/config"
	"github.com/phenrril/catalogsync/internal/domain"
)

// FromConfig elige el backend de archivos según STORAGE_DRIVER.
func FromConfig(ctx context.Context, cfg config.StorageConfig) (domain.FileStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return localfs.New(cfg.Dir, cfg.URLPrefix), nil

	case "s3":
		if cfg.S3Region == "" || cfg.S3Bucket == "" || cfg.S3PublicBase == "" {
			return nil, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
		return s3.New(ctx, s3.Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBase,
		})

	case "cloudinary":
		return cloudinary.New(cfg.CloudinaryURL, cfg.CloudFolder)

	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.Driver)
	}
}
