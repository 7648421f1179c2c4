package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sydlexius/colophon/internal/api"
	"github.com/sydlexius/colophon/internal/version"
)

func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the resolution HTTP API",
		Long: `Starts an HTTP server exposing the resolution pipeline:

  POST /api/v1/resolve   resolve a hint to ranked candidates
  GET  /api/v1/sources   list sources and their enabled state
  GET  /healthz          liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer closeLog() //nolint:errcheck

			resolver, registry := buildResolver(cfg, logger)
			router := api.NewRouter(api.RouterDeps{
				Resolver: resolver,
				Registry: registry,
				Options:  cfg.Sources.Options(),
				Logger:   logger,
				BasePath: cfg.Server.BasePath,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      router.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 90 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info("starting colophon",
					slog.String("version", version.Version),
					slog.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case err := <-serverErr:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	return cmd
}
