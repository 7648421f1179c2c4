package duckduckgo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/sydlexius/colophon/internal/source"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("loading fixture %s: %v", name, err)
	}
	return data
}

// newTestServer serves both the vqd/html frontend and the d.js payload
// endpoint. Setting brokenPayload makes d.js return junk so the adapter
// falls back to the HTML results page.
func newTestServer(t *testing.T, brokenPayload bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/html/" && r.Method == http.MethodPost:
			w.Write([]byte(`<script>vqd=4-1234567890123456789;</script>`))
		case r.URL.Path == "/html/" && r.Method == http.MethodGet:
			w.Write(loadFixture(t, "results.html"))
		case r.URL.Path == "/d.js":
			if brokenPayload {
				w.Write([]byte(`DDG.duckbar.load('images');`))
				return
			}
			w.Write(loadFixture(t, "djs_fortress.js"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()
	limiter := source.NewRateLimiterMap()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithBaseURL(limiter, logger, baseURL, baseURL)
}

func TestName(t *testing.T) {
	a := newTestAdapter(t, "http://localhost")
	if a.Name() != source.NameWebSearch {
		t.Errorf("expected %q, got %q", source.NameWebSearch, a.Name())
	}
}

func TestFetchEmbeddedPayload(t *testing.T) {
	srv := newTestServer(t, false)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	got, err := a.Fetch(context.Background(), source.Hint{ExtractedTitle: "围城"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// third payload entry has no title and is dropped
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}

	c := got[0]
	if c.Title != "围城 (豆瓣)" {
		t.Errorf("title = %q", c.Title)
	}
	if !reflect.DeepEqual(c.Authors, []string{"钱锺书"}) {
		t.Errorf("authors = %v", c.Authors)
	}
	if c.Publisher != "人民文学出版社" {
		t.Errorf("publisher = %q", c.Publisher)
	}
	if c.PublishedYear != "1991" {
		t.Errorf("year = %q", c.PublishedYear)
	}
	if c.Kind != source.KindBook {
		t.Errorf("kind = %q", c.Kind)
	}
	if c.Source != "DuckDuckGo" {
		t.Errorf("source = %q", c.Source)
	}
	if c.Confidence != baselineTextQuery {
		t.Errorf("confidence = %d", c.Confidence)
	}

	// prose abstract with no "/" tokens assigns nothing
	if got[1].Publisher != "" || len(got[1].Authors) != 0 {
		t.Errorf("prose abstract must not be split: %+v", got[1])
	}
	if got[1].Kind != source.KindUnknown {
		t.Errorf("kind = %q, want unknown", got[1].Kind)
	}
}

func TestFetchHTMLFallback(t *testing.T) {
	srv := newTestServer(t, true)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	got, err := a.Fetch(context.Background(), source.Hint{ExtractedTitle: "clean code"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates from html fallback, got %d", len(got))
	}
	c := got[1]
	if c.Title != "Clean Code by Robert C. Martin" {
		t.Errorf("title = %q", c.Title)
	}
	if c.ISBN != "9780132350884" {
		t.Errorf("isbn extracted from snippet = %q", c.ISBN)
	}
	if c.Publisher != "Prentice Hall" {
		t.Errorf("publisher = %q", c.Publisher)
	}
}

func TestFetchTotalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	_, err := a.Fetch(context.Background(), source.Hint{ExtractedTitle: "anything"})
	if err == nil {
		t.Fatal("expected error when both paths fail")
	}
}

func TestSplitAbstract(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		authors   []string
		publisher string
		year      string
	}{
		{
			name:      "year token anchors the split",
			in:        "钱锺书 / 人民文学出版社 / 1991-2 / 19.00元",
			authors:   []string{"钱锺书"},
			publisher: "人民文学出版社",
			year:      "1991",
		},
		{
			name:      "two authors before publisher",
			in:        "Andrew Hunt / David Thomas / Addison-Wesley / 1999",
			authors:   []string{"Andrew Hunt", "David Thomas"},
			publisher: "Addison-Wesley",
			year:      "1999",
		},
		{
			name:      "no year falls back to second-to-last token",
			in:        "Some Author / Some Press / paperback",
			authors:   []string{"Some Author"},
			publisher: "Some Press",
		},
		{
			name: "year-first leaves nothing to assign",
			in:   "2008 / trade edition",
			year: "2008",
		},
		{
			name: "single token is not split",
			in:   "a plain prose sentence",
		},
		{
			name: "empty input",
			in:   "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authors, publisher, year := splitAbstract(tc.in)
			if !reflect.DeepEqual(authors, tc.authors) {
				t.Errorf("authors = %v, want %v", authors, tc.authors)
			}
			if publisher != tc.publisher {
				t.Errorf("publisher = %q, want %q", publisher, tc.publisher)
			}
			if year != tc.year {
				t.Errorf("year = %q, want %q", year, tc.year)
			}
		})
	}
}

func TestMapHitDOIMeansPaper(t *testing.T) {
	hit := resultHit{
		Title:    "Attention Is All You Need",
		Abstract: "Advances in Neural Information Processing Systems, 2017.",
		URL:      "https://doi.org/10.48550/arXiv.1706.03762",
	}
	c, ok := mapHit(hit, source.Query{})
	if !ok {
		t.Fatal("expected usable candidate")
	}
	if c.Kind != source.KindPaper {
		t.Errorf("kind = %q, want paper", c.Kind)
	}
	if c.DOI != "10.48550/arxiv.1706.03762" {
		t.Errorf("doi = %q", c.DOI)
	}
}

func TestMapHitSkipsEmptyTitle(t *testing.T) {
	if _, ok := mapHit(resultHit{Abstract: "text"}, source.Query{}); ok {
		t.Error("hit without title must be skipped")
	}
}
