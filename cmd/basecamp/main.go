// Package main provides the basecamp binary that serves the expedition API
// over HTTP with a gRPC health endpoint alongside.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/basecamp/internal/config"
	"github.com/cory-johannsen/basecamp/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "basecamp")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting basecamp",
		zap.String("mode", cfg.Server.Mode),
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("grpc_addr", cfg.GRPC.Addr()),
	)

	a, cleanup, err := initializeApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing application", zap.Error(err))
	}
	defer cleanup()

	a.health.SetServing("", true)
	logger.Info("basecamp initialized", zap.Duration("startup", time.Since(start)))

	if err := a.lifecycle.Run(ctx); err != nil {
		logger.Error("basecamp exited with error", zap.Error(err))
		cleanup()
		_ = logger.Sync()
		os.Exit(1)
	}
}
