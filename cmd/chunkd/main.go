package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arraylab/cloudarray/internal/config"
	"github.com/arraylab/cloudarray/internal/registration"
	"github.com/arraylab/cloudarray/internal/server"
	"github.com/arraylab/cloudarray/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfgPath := flag.String("config", defaultConfigPath(), "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("cloudarray-chunkd", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	// Register built-in storage backends
	registration.RegisterBuiltins()

	srv, err := server.New(server.Options{
		Addr:           cfg.Server.Addr,
		RootURL:        cfg.Storage.Root,
		BackendConfig:  cfg.Storage.Options,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := config.Watch(ctx, *cfgPath, logger, func(next *config.Config) {
			logger.Info("configuration reloaded",
				slog.String("storage_root", next.Storage.Root),
				slog.String("addr", next.Server.Addr))
		})
		if err != nil {
			logger.Error("config watcher failed", slog.String("error", err.Error()))
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("chunk server started",
		slog.String("addr", cfg.Server.Addr),
		slog.String("storage_root", cfg.Storage.Root))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case <-sigChan:
	}

	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func defaultConfigPath() string {
	if p := os.Getenv("CLOUDARRAY_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}
