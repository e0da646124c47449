package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/app"
	"github.com/yokitheyo/bgremover/internal/config"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Background Removal API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("level", cfg.Logging.Level).Msg("unknown log level, keeping info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	application, err := app.New(ctx, cfg)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to start")
	}

	if err := application.Run(ctx); err != nil {
		zlog.Logger.Error().Err(err).Msg("API stopped with error")
		os.Exit(1)
	}
}
