package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sydlexius/colophon/internal/config"
	"github.com/sydlexius/colophon/internal/logging"
	"github.com/sydlexius/colophon/internal/resolve"
	"github.com/sydlexius/colophon/internal/source"
	"github.com/sydlexius/colophon/internal/source/duckduckgo"
	"github.com/sydlexius/colophon/internal/source/googlebooks"
	"github.com/sydlexius/colophon/internal/source/loc"
	"github.com/sydlexius/colophon/internal/source/openlibrary"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "colophon",
		Short: "Multi-source book and paper metadata resolution",
		Long: `Colophon resolves weak bibliographic hints (title guesses, an optional
ISBN or DOI, a content snippet) against several external catalog sources
concurrently, merges the fragmentary answers into deduplicated candidates,
and ranks them by confidence.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CP_CONFIG_PATH"), "path to config file")

	cmd.AddCommand(newResolveCmd(&configPath))
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads configuration and builds the logger. The returned close
// function flushes the log file writer, if any.
func setup(configPath string) (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeFn := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	return cfg, logger, closeFn, nil
}

// buildResolver wires the source registry, rate limiters, orchestrator, and
// resolver from configuration.
func buildResolver(cfg *config.Config, logger *slog.Logger) (*resolve.Resolver, *source.Registry) {
	limiters := source.NewRateLimiterMap()
	registry := source.NewRegistry()
	registry.Register(openlibrary.New(limiters, logger))
	registry.Register(googlebooks.New(limiters, logger, cfg.Sources.GoogleBooks.APIKey))
	registry.Register(duckduckgo.New(limiters, logger))
	registry.Register(loc.New(limiters, logger))

	resolver := resolve.New(source.NewOrchestrator(registry, logger), logger)
	return resolver, registry
}
