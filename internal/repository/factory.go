// Package repository selects the status-check store backend.
package repository

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
	"github.com/yokitheyo/bgremover/internal/infrastructure/database"
	"github.com/yokitheyo/bgremover/internal/repository/postgres"
	"github.com/yokitheyo/bgremover/internal/repository/redis"
	"github.com/yokitheyo/bgremover/internal/repository/sqlite"
)

// NewStatusRepository connects to the configured store. Any failure here is a
// startup error.
func NewStatusRepository(ctx context.Context, cfg *config.StoreConfig) (domain.StatusRepository, error) {
	zlog.Logger.Info().Str("driver", cfg.Driver).Str("namespace", cfg.Namespace).Msg("Connecting status store")

	switch cfg.Driver {
	case "postgres":
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return postgres.NewStatusRepository(db, cfg.Namespace, postgres.DefaultStrategy), nil
	case "redis":
		client, err := redis.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return redis.NewStatusRepository(client, cfg.Namespace), nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStatusRepository(db, cfg.Namespace), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
