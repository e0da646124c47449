package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/helpers"
)

const (
	defaultConnectRetries  = 15
	defaultConnectDelaySec = 3
)

// Connect opens the postgres master (and optional read replicas) described by cfg.
func Connect(ctx context.Context, cfg *config.StoreConfig) (*dbpg.DB, error) {
	retries := cfg.ConnectRetries
	if retries == 0 {
		retries = defaultConnectRetries
	}
	delay := cfg.ConnectRetryDelaySec
	if delay == 0 {
		delay = defaultConnectDelaySec
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSec) * time.Second,
	}
	return ConnectWithRetries(ctx, cfg.DSN, helpers.SplitAndTrim(cfg.Slaves, ","), opts, retries, delay)
}

// ConnectWithRetries пытается подключиться retries раз с паузой delaySec,
// каждое подключение проверяется пингом мастера.
func ConnectWithRetries(ctx context.Context, masterDSN string, slaves []string, opts *dbpg.Options, retries int, delaySec int) (*dbpg.DB, error) {
	if retries <= 0 {
		retries = 1
	}
	if delaySec <= 0 {
		delaySec = 1
	}

	var database *dbpg.DB
	var err error

	for i := 0; i < retries; i++ {
		zlog.Logger.Info().Msgf("Database connection attempt %d/%d", i+1, retries)

		database, err = dbpg.New(masterDSN, slaves, opts)
		if err != nil {
			zlog.Logger.Warn().Err(err).Msgf("dbpg.New failed on attempt %d/%d", i+1, retries)
			database = nil
		} else if database.Master == nil {
			err = fmt.Errorf("database.Master is nil")
			zlog.Logger.Warn().Err(err).Msgf("nil master connection on attempt %d/%d", i+1, retries)
			database = nil
		} else if pingErr := database.Master.PingContext(ctx); pingErr != nil {
			err = pingErr
			zlog.Logger.Warn().Err(pingErr).Msgf("db ping failed on attempt %d/%d", i+1, retries)
			_ = Close(database)
			database = nil
		} else {
			zlog.Logger.Info().Msg("Database connection established successfully")
			break
		}

		if i < retries-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("database connect aborted: %w", ctx.Err())
			case <-time.After(time.Duration(delaySec) * time.Second):
			}
		}
	}

	if err != nil || database == nil {
		return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
	}

	return database, nil
}

// Close closes the master and every replica connection.
func Close(db *dbpg.DB) error {
	if db == nil {
		return nil
	}
	var errs []error
	if db.Master != nil {
		if err := db.Master.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close master: %w", err))
		}
	}
	for i, s := range db.Slaves {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close slave %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
