// Package source defines the contract between the resolution pipeline and
// the external bibliographic source adapters, plus the shared plumbing
// (registry, rate limiting, concurrent fan-out) they all use.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/sydlexius/colophon/internal/normalize"
)

// Name uniquely identifies a bibliographic source adapter.
type Name string

// Known source names.
const (
	NameOpenLibrary Name = "openlibrary"
	NameGoogleBooks Name = "googlebooks"
	NameWebSearch   Name = "duckduckgo"
	NameLoC         Name = "loc"
)

// AllNames returns all known source names in display order. This order also
// fixes the fan-in order of the candidate pool, keeping output deterministic.
func AllNames() []Name {
	return []Name{NameOpenLibrary, NameGoogleBooks, NameWebSearch, NameLoC}
}

// DisplayName returns the human-readable source label used on candidates.
func (n Name) DisplayName() string {
	switch n {
	case NameOpenLibrary:
		return "Open Library"
	case NameGoogleBooks:
		return "Google Books"
	case NameWebSearch:
		return "DuckDuckGo"
	case NameLoC:
		return "Library of Congress"
	default:
		return string(n)
	}
}

// Kind classifies what a candidate describes.
type Kind string

// Known publication kinds.
const (
	KindBook    Kind = "book"
	KindPaper   Kind = "paper"
	KindUnknown Kind = "unknown"
)

// Hint is the weak textual signal a caller extracted from a document. It is
// read-only to this package; adapters re-normalize its fields defensively.
type Hint struct {
	FileNameTitle   string   `json:"file_name_title"`
	ExtractedTitle  string   `json:"extracted_title"`
	Snippet         string   `json:"snippet,omitempty"`
	ISBN            string   `json:"isbn,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	QueryCandidates []string `json:"query_candidates,omitempty"`
}

// Query is one outbound search an adapter should issue.
type Query struct {
	Text   string
	IsISBN bool
}

// maxTextQueries caps the free-text query variants per adapter; an
// ISBN-specific query does not count against the cap.
const maxTextQueries = 3

// Queries derives the outbound query list from the hint: an ISBN query first
// when the hint carries one, then up to three free-text variants taken from
// the pre-built candidates, the extracted title, and the filename title, in
// that order, deduplicated case-insensitively.
func (h Hint) Queries() []Query {
	var out []Query
	if isbn := normalize.ISBN(h.ISBN); isbn != "" {
		out = append(out, Query{Text: isbn, IsISBN: true})
	}

	seen := make(map[string]bool)
	text := 0
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || text >= maxTextQueries {
			return
		}
		key := strings.ToLower(s)
		if seen[key] {
			return
		}
		seen[key] = true
		text++
		out = append(out, Query{Text: s})
	}

	for _, q := range h.QueryCandidates {
		add(q)
	}
	add(h.ExtractedTitle)
	add(h.FileNameTitle)
	return out
}

// Candidate is one bibliographic record in the canonical schema. Adapters
// emit raw candidates; the merge stage folds them into composite candidates
// of the same shape, where Source becomes a "+"-joined label list and
// Confidence the final ranked score.
type Candidate struct {
	Kind          Kind     `json:"kind"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedYear string   `json:"published_year,omitempty"`
	Language      string   `json:"language,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	DOI           string   `json:"doi,omitempty"`
	Source        string   `json:"source"`
	SourceURL     string   `json:"source_url,omitempty"`
	ValidatedBy   []string `json:"validated_by,omitempty"`
	Confidence    int      `json:"confidence"`
}

// PrimaryTitle is the candidate's display title, "title: subtitle" when a
// subtitle exists. It is also the ranking tie-breaker.
func (c Candidate) PrimaryTitle() string {
	if c.Subtitle != "" {
		return c.Title + ": " + c.Subtitle
	}
	return c.Title
}

// Options enables or disables individual sources for one fetch.
type Options struct {
	OpenLibrary       bool `json:"openlibrary"`
	GoogleBooks       bool `json:"googlebooks"`
	WebSearch         bool `json:"duckduckgo"`
	LibraryOfCongress bool `json:"loc"`
}

// DefaultOptions enables every source.
func DefaultOptions() Options {
	return Options{OpenLibrary: true, GoogleBooks: true, WebSearch: true, LibraryOfCongress: true}
}

// Enabled reports whether the named source is enabled.
func (o Options) Enabled(n Name) bool {
	switch n {
	case NameOpenLibrary:
		return o.OpenLibrary
	case NameGoogleBooks:
		return o.GoogleBooks
	case NameWebSearch:
		return o.WebSearch
	case NameLoC:
		return o.LibraryOfCongress
	default:
		return false
	}
}

// Source is the interface all bibliographic source adapters implement.
// Fetch issues the adapter's outbound queries for the hint and returns raw
// candidates. Per-query failures are swallowed inside the adapter; a
// returned error means the adapter as a whole contributed nothing.
type Source interface {
	Name() Name
	Fetch(ctx context.Context, hint Hint) ([]Candidate, error)
}

// ErrSourceUnavailable indicates a transient source failure (timeout,
// non-2xx status, malformed payload).
type ErrSourceUnavailable struct {
	Source Name
	Cause  error
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Cause)
}

func (e *ErrSourceUnavailable) Unwrap() error { return e.Cause }
