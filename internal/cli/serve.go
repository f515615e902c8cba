package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arraylab/cloudarray/internal/config"
	"github.com/arraylab/cloudarray/internal/registration"
	"github.com/arraylab/cloudarray/internal/server"
	"github.com/arraylab/cloudarray/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chunk server",
		Long: `Serve every array under the configured root store over HTTP. The
configuration file is watched; edits are logged and the storage options
take effect for stores opened afterwards.`,
		Example: `  cloudarray serve --config /etc/cloudarray/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg.Log)
			slog.SetDefault(logger)

			shutdownTracer, err := telemetry.InitTracer("cloudarray-chunkd", logger)
			if err != nil {
				return fmt.Errorf("init tracer: %w", err)
			}
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
				}
			}()

			registration.RegisterBuiltins()

			srv, err := server.New(server.Options{
				Addr:           cfg.Server.Addr,
				RootURL:        cfg.Storage.Root,
				BackendConfig:  cfg.Storage.Options,
				RequestTimeout: cfg.Server.RequestTimeout,
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfgPath != "" {
				go func() {
					err := config.Watch(ctx, cfgPath, logger, func(next *config.Config) {
						logger.Info("configuration reloaded",
							slog.String("storage_root", next.Storage.Root),
							slog.String("addr", next.Server.Addr))
					})
					if err != nil {
						logger.Error("config watcher failed", slog.String("error", err.Error()))
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			logger.Info("chunk server started",
				slog.String("addr", cfg.Server.Addr),
				slog.String("storage_root", cfg.Storage.Root))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutdown signal received, stopping server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML configuration file")
	return cmd
}
