package resolve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/sydlexius/colophon/internal/source"
)

type mockSource struct {
	name    source.Name
	fetchFn func(ctx context.Context, hint source.Hint) ([]source.Candidate, error)
}

func (m *mockSource) Name() source.Name { return m.name }

func (m *mockSource) Fetch(ctx context.Context, hint source.Hint) ([]source.Candidate, error) {
	return m.fetchFn(ctx, hint)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(t *testing.T, sources ...source.Source) *Resolver {
	t.Helper()
	registry := source.NewRegistry()
	for _, s := range sources {
		registry.Register(s)
	}
	logger := discardLogger()
	return New(source.NewOrchestrator(registry, logger), logger)
}

func fixedSource(name source.Name, candidates ...source.Candidate) *mockSource {
	return &mockSource{
		name: name,
		fetchFn: func(context.Context, source.Hint) ([]source.Candidate, error) {
			return candidates, nil
		},
	}
}

func TestResolveMergesAcrossSources(t *testing.T) {
	r := newTestResolver(t,
		fixedSource(source.NameOpenLibrary, source.Candidate{
			Kind: source.KindBook, Title: "1984", Authors: []string{"George Orwell"},
			PublishedYear: "1949", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 52,
		}),
		fixedSource(source.NameGoogleBooks, source.Candidate{
			Kind: source.KindBook, Title: "1984", Authors: []string{"George Orwell"},
			PublishedYear: "1949", Source: "Google Books", ValidatedBy: []string{"Google Books"}, Confidence: 55,
		}),
	)

	got := r.Resolve(context.Background(), source.Hint{ExtractedTitle: "1984"}, source.DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 merged candidate, got %d", len(got))
	}
	if got[0].Source != "Google Books+Open Library" {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestResolveDeterministicAcrossInvocations(t *testing.T) {
	r := newTestResolver(t,
		fixedSource(source.NameOpenLibrary,
			source.Candidate{Kind: source.KindBook, Title: "Dune", ISBN: "9780441013593", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 52},
			source.Candidate{Kind: source.KindBook, Title: "Dune Messiah", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 52},
		),
		fixedSource(source.NameLoC,
			source.Candidate{Kind: source.KindBook, Title: "Dune", ISBN: "9780441013593", Publisher: "Ace Books", Source: "Library of Congress", ValidatedBy: []string{"Library of Congress"}, Confidence: 48},
		),
	)

	hint := source.Hint{ExtractedTitle: "Dune"}
	first := r.Resolve(context.Background(), hint, source.DefaultOptions())
	for range 5 {
		if got := r.Resolve(context.Background(), hint, source.DefaultOptions()); !reflect.DeepEqual(got, first) {
			t.Fatalf("output not deterministic:\nfirst: %+v\ngot:   %+v", first, got)
		}
	}
}

func TestResolveIsolatesFailingSource(t *testing.T) {
	failing := &mockSource{
		name: source.NameWebSearch,
		fetchFn: func(context.Context, source.Hint) ([]source.Candidate, error) {
			return nil, errors.New("connection refused")
		},
	}
	r := newTestResolver(t,
		failing,
		fixedSource(source.NameOpenLibrary, source.Candidate{
			Kind: source.KindBook, Title: "Dune", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 52,
		}),
	)

	got := r.Resolve(context.Background(), source.Hint{ExtractedTitle: "Dune"}, source.DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("surviving source's candidates must be returned, got %d", len(got))
	}
}

func TestResolveAllSourcesDisabled(t *testing.T) {
	r := newTestResolver(t, fixedSource(source.NameOpenLibrary, source.Candidate{
		Kind: source.KindBook, Title: "Dune", Source: "Open Library", Confidence: 52,
	}))

	got := r.Resolve(context.Background(), source.Hint{ExtractedTitle: "Dune"}, source.Options{})
	if len(got) != 0 {
		t.Errorf("expected empty list with all sources disabled, got %d", len(got))
	}
}

func TestResolveEmptyPool(t *testing.T) {
	r := newTestResolver(t, fixedSource(source.NameOpenLibrary))
	got := r.Resolve(context.Background(), source.Hint{ExtractedTitle: "nothing"}, source.DefaultOptions())
	if len(got) != 0 {
		t.Errorf("expected empty list, got %d", len(got))
	}
}
