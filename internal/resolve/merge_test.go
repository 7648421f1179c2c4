package resolve

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sydlexius/colophon/internal/source"
)

func TestMergeAndRankDeterministic(t *testing.T) {
	pool := []source.Candidate{
		{Kind: source.KindBook, Title: "1984", Authors: []string{"George Orwell"}, PublishedYear: "1949", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 52},
		{Kind: source.KindBook, Title: "Nineteen Eighty-Four", ISBN: "9780451524935", Source: "Google Books", ValidatedBy: []string{"Google Books"}, Confidence: 55},
		{Kind: source.KindUnknown, Title: "1984", Authors: []string{"george orwell"}, PublishedYear: "1949", Source: "DuckDuckGo", ValidatedBy: []string{"DuckDuckGo"}, Confidence: 42},
	}
	hint := source.Hint{ExtractedTitle: "1984"}

	first := mergeAndRank(pool, hint)
	for range 5 {
		if got := mergeAndRank(pool, hint); !reflect.DeepEqual(got, first) {
			t.Fatalf("output not deterministic:\nfirst: %+v\ngot:   %+v", first, got)
		}
	}
}

func TestMergeByISBNIgnoresTitleDifference(t *testing.T) {
	pool := []source.Candidate{
		{Kind: source.KindBook, Title: "Clean Code", ISBN: "9780132350884", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 52},
		{Kind: source.KindBook, Title: "A completely different listing", ISBN: "978-0-13-235088-4", Source: "Google Books", ValidatedBy: []string{"Google Books"}, Confidence: 55},
	}
	got := mergeAndRank(pool, source.Hint{})
	if len(got) != 1 {
		t.Fatalf("expected 1 merged candidate, got %d", len(got))
	}
	if !strings.Contains(got[0].Source, "Open Library") || !strings.Contains(got[0].Source, "Google Books") {
		t.Errorf("source = %q, want both labels", got[0].Source)
	}
}

func TestDedupeKeyPrecedence(t *testing.T) {
	cases := []struct {
		name string
		c    source.Candidate
		want string
	}{
		{"isbn wins", source.Candidate{Title: "T", ISBN: "9780132350884", DOI: "10.1000/x"}, "isbn:9780132350884"},
		{"doi next", source.Candidate{Title: "T", DOI: "10.1000/x"}, "doi:10.1000/x"},
		{"title triple last", source.Candidate{Title: "Clean Code", Authors: []string{"Robert C. Martin"}, PublishedYear: "2008"}, "title:cleancode|robertcmartin|2008"},
		{"triple with no author", source.Candidate{Title: "Clean Code"}, "title:cleancode||"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dedupeKey(tc.c); got != tc.want {
				t.Errorf("dedupeKey = %q, want %q", got, tc.want)
			}
		})
	}
}

// A(isbn=X, doi=Y) and B(isbn=X) must merge by ISBN; C(doi=Y) keys on DOI and
// stays separate, because key precedence is applied per candidate, not
// pairwise.
func TestISBNDisambiguatesBeforeDOI(t *testing.T) {
	pool := []source.Candidate{
		{Kind: source.KindBook, Title: "Work A", ISBN: "9780000000001", DOI: "10.1000/shared", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 60},
		{Kind: source.KindBook, Title: "Work B", ISBN: "9780000000001", Source: "Google Books", ValidatedBy: []string{"Google Books"}, Confidence: 50},
		{Kind: source.KindPaper, Title: "Work C", DOI: "10.1000/shared", Source: "DuckDuckGo", ValidatedBy: []string{"DuckDuckGo"}, Confidence: 50},
	}
	got := mergeAndRank(pool, source.Hint{})
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates (isbn pair merged, doi-only separate), got %d", len(got))
	}
	for _, c := range got {
		if strings.Contains(c.Source, "DuckDuckGo") && strings.Contains(c.Source, "Open Library") {
			t.Errorf("doi-only candidate must not fold into the isbn cluster: %+v", c)
		}
	}
}

func TestFillOrImproveNeverRegresses(t *testing.T) {
	base := source.Candidate{
		Kind:          source.KindBook,
		Title:         "Clean Code",
		Publisher:     "Prentice Hall",
		PublishedYear: "2008",
		ISBN:          "9780132350884",
	}
	in := source.Candidate{
		Kind:     source.KindUnknown,
		Title:    "Clean Code: A Handbook of Agile Software Craftsmanship",
		Subtitle: "A Handbook of Agile Software Craftsmanship",
		Authors:  []string{"Robert C. Martin"},
		DOI:      "10.1000/example",
	}

	got := fillOrImprove(base, in)
	if got.Publisher != "Prentice Hall" {
		t.Errorf("non-empty publisher must survive an empty incoming value, got %q", got.Publisher)
	}
	if got.PublishedYear != "2008" {
		t.Errorf("year must not be overwritten, got %q", got.PublishedYear)
	}
	if got.Title != "Clean Code: A Handbook of Agile Software Craftsmanship" {
		t.Errorf("strictly longer title should replace, got %q", got.Title)
	}
	if got.Subtitle != "A Handbook of Agile Software Craftsmanship" {
		t.Errorf("empty subtitle should fill, got %q", got.Subtitle)
	}
	if got.DOI != "10.1000/example" {
		t.Errorf("empty doi should fill, got %q", got.DOI)
	}
	if got.Kind != source.KindBook {
		t.Errorf("unknown kind must yield to book, got %q", got.Kind)
	}
	if !reflect.DeepEqual(got.Authors, []string{"Robert C. Martin"}) {
		t.Errorf("authors = %v", got.Authors)
	}
}

func TestMergeKind(t *testing.T) {
	cases := []struct {
		a, b, want source.Kind
	}{
		{source.KindBook, source.KindBook, source.KindBook},
		{source.KindUnknown, source.KindPaper, source.KindPaper},
		{source.KindPaper, source.KindUnknown, source.KindPaper},
		{source.KindBook, source.KindPaper, source.KindBook},
		{source.KindPaper, source.KindBook, source.KindBook},
		{"", source.KindPaper, source.KindPaper},
	}
	for _, tc := range cases {
		if got := mergeKind(tc.a, tc.b); got != tc.want {
			t.Errorf("mergeKind(%q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMergeDropsEmptyTitles(t *testing.T) {
	pool := []source.Candidate{
		{Title: "  ", Source: "Open Library", Confidence: 50},
		{Title: "", ISBN: "9780132350884", Source: "Google Books", Confidence: 60},
	}
	if got := mergeAndRank(pool, source.Hint{}); len(got) != 0 {
		t.Errorf("titleless candidates must be dropped, got %d", len(got))
	}
}

func TestMergeCorroborationBonus(t *testing.T) {
	pool := []source.Candidate{
		{Kind: source.KindBook, Title: "1984", Authors: []string{"George Orwell"}, PublishedYear: "1949", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 52},
		{Kind: source.KindBook, Title: "1984", Authors: []string{"george orwell"}, PublishedYear: "1949", Source: "Google Books", ValidatedBy: []string{"Google Books"}, Confidence: 55},
	}
	got := mergeAndRank(pool, source.Hint{})
	if len(got) != 1 {
		t.Fatalf("expected 1 merged candidate, got %d", len(got))
	}
	c := got[0]

	// strongest member: 55 baseline +4 authors +3 year = 62; two distinct
	// sources add one corroboration step
	if c.Confidence != 65 {
		t.Errorf("confidence = %d, want 65", c.Confidence)
	}
	if c.Source != "Google Books+Open Library" {
		t.Errorf("source = %q", c.Source)
	}
	if !reflect.DeepEqual(c.ValidatedBy, []string{"Google Books", "Open Library"}) {
		t.Errorf("validatedBy must be the sorted union, got %v", c.ValidatedBy)
	}
	if len(c.Authors) != 1 {
		t.Errorf("case-variant authors must dedupe, got %v", c.Authors)
	}
}

func TestMergeInfersLanguageFromTitle(t *testing.T) {
	pool := []source.Candidate{
		{Kind: source.KindBook, Title: "围城", Authors: []string{"钱锺书"}, Source: "DuckDuckGo", ValidatedBy: []string{"DuckDuckGo"}, Confidence: 42},
	}
	got := mergeAndRank(pool, source.Hint{})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Language != "zh" {
		t.Errorf("language = %q, want inferred zh", got[0].Language)
	}
}

func TestRankedOrdering(t *testing.T) {
	pool := []source.Candidate{
		{Kind: source.KindBook, Title: "beta", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 50},
		{Kind: source.KindBook, Title: "Alpha", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 50},
		{Kind: source.KindBook, Title: "gamma", Source: "Open Library", ValidatedBy: []string{"Open Library"}, Confidence: 70},
	}
	got := mergeAndRank(pool, source.Hint{})
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].Title != "gamma" {
		t.Errorf("highest confidence must come first, got %q", got[0].Title)
	}
	if got[1].Title != "Alpha" || got[2].Title != "beta" {
		t.Errorf("ties must sort by case-insensitive title: %q, %q", got[1].Title, got[2].Title)
	}
}
