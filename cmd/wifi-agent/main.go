package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strct-org/strct-wifi/internal/agent"
	"github.com/strct-org/strct-wifi/internal/config"
)

func main() {
	undo := zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	cfg := config.Load()

	logger := newLogger(cfg.Verbose)
	undo()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := agent.New(cfg, logger)
	if err := a.Bootstrap(ctx); err != nil {
		logger.Error("bootstrap failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("device online, waiting for shutdown", zap.String("device_id", cfg.DeviceID))
	<-ctx.Done()
	logger.Info("Shutting down gracefully...")
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
