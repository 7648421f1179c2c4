package source

import (
	"context"
	"log/slog"
	"sync"
)

// Orchestrator fans one hint out to all enabled sources concurrently and
// collects the raw candidate pool.
type Orchestrator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(registry *Registry, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		logger:   logger.With(slog.String("component", "orchestrator")),
	}
}

// Fetch runs every enabled source adapter in its own goroutine, waits for
// all of them, and concatenates their candidates in registry order. A failed
// adapter contributes zero candidates; it never aborts the fetch. Each
// adapter writes only its own result slot, so the WaitGroup barrier is the
// only synchronization needed.
func (o *Orchestrator) Fetch(ctx context.Context, hint Hint, opts Options) []Candidate {
	var enabled []Source
	for _, s := range o.registry.All() {
		if opts.Enabled(s.Name()) {
			enabled = append(enabled, s)
		}
	}

	results := make([][]Candidate, len(enabled))
	var wg sync.WaitGroup
	for i, s := range enabled {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			candidates, err := s.Fetch(ctx, hint)
			if err != nil {
				o.logger.Warn("source fetch failed",
					slog.String("source", string(s.Name())),
					slog.String("error", err.Error()))
				return
			}
			results[i] = candidates
		}(i, s)
	}
	wg.Wait()

	var pool []Candidate
	for i, r := range results {
		o.logger.Debug("source contributed",
			slog.String("source", string(enabled[i].Name())),
			slog.Int("candidates", len(r)))
		pool = append(pool, r...)
	}
	return pool
}
