// Package resolve runs the full metadata resolution pipeline: fan the hint
// out to the enabled sources, fold the raw candidate pool into identity
// clusters, and rank the composites by confidence.
package resolve

import (
	"context"
	"log/slog"

	"github.com/sydlexius/colophon/internal/source"
)

// Resolver ties the fetch orchestrator to the merge and ranking stages.
type Resolver struct {
	orchestrator *source.Orchestrator
	logger       *slog.Logger
}

// New creates a Resolver on top of the given orchestrator.
func New(orchestrator *source.Orchestrator, logger *slog.Logger) *Resolver {
	return &Resolver{
		orchestrator: orchestrator,
		logger:       logger.With(slog.String("component", "resolver")),
	}
}

// Resolve returns the ranked candidate list for a hint. It never returns an
// error: source failures degrade to fewer candidates, and an empty list is
// meaningful output ("nothing found"), not a failure.
func (r *Resolver) Resolve(ctx context.Context, hint source.Hint, opts source.Options) []source.Candidate {
	pool := r.orchestrator.Fetch(ctx, hint, opts)
	ranked := mergeAndRank(pool, hint)
	r.logger.Debug("resolved hint",
		slog.Int("raw_candidates", len(pool)),
		slog.Int("ranked_candidates", len(ranked)))
	return ranked
}
