package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/daemon"
	"github.com/quillhost/addons/internal/infrastructure/config"
	"github.com/quillhost/addons/internal/infrastructure/logging"
)

func main() {
	// Parse flags; flags override environment configuration
	feedURL := flag.String("feed", "", "Descriptor feed base URL")
	hostVersion := flag.String("host-version", "", "Host application version")
	seedDir := flag.String("seed-dir", "", "Bootstrap manifest directory")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *feedURL != "" {
		cfg.Feed.BaseURL = *feedURL
	}
	if *hostVersion != "" {
		cfg.Host.Version = *hostVersion
	}
	if *seedDir != "" {
		cfg.Feed.SeedDir = *seedDir
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create daemon", zap.Error(err))
	}

	logger.Info("Add-ons daemon starting",
		zap.String("host", cfg.Host.Name),
		zap.String("host_version", cfg.Host.Version),
		zap.String("feed", cfg.Feed.BaseURL),
	)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Daemon exited with error", zap.Error(err))
	}

	logger.Info("Shutting down gracefully")
	if err := d.Close(); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
}
