package storage

import (
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
)

// New builds the archive for processed images.
func New(cfg *config.StorageConfig) (domain.StorageService, error) {
	switch cfg.Type {
	case "local":
		zlog.Logger.Info().Msg("Initializing local storage")
		return NewLocalStorage(cfg)
	case "s3":
		zlog.Logger.Info().Msg("Initializing S3 storage")
		return NewS3Storage(cfg)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported storage type, use 'local' or 's3'")
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
