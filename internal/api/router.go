// Package api exposes the resolution pipeline over a small JSON HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/sydlexius/colophon/internal/api/middleware"
	"github.com/sydlexius/colophon/internal/resolve"
	"github.com/sydlexius/colophon/internal/source"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	Resolver *resolve.Resolver
	Registry *source.Registry
	Options  source.Options
	Logger   *slog.Logger
	BasePath string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	resolver *resolve.Resolver
	registry *source.Registry
	options  source.Options
	logger   *slog.Logger
	basePath string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		resolver: deps.Resolver,
		registry: deps.Registry,
		options:  deps.Options,
		logger:   deps.Logger,
		basePath: deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/healthz", r.handleHealth)
	mux.HandleFunc("POST "+bp+"/api/v1/resolve", r.handleResolve)
	mux.HandleFunc("GET "+bp+"/api/v1/sources", r.handleSources)

	return middleware.RequestID(middleware.Logging(r.logger)(mux))
}
