// Package loc implements the Library of Congress catalog search adapter,
// backed by the loc.gov JSON search API.
package loc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sydlexius/colophon/internal/loosejson"
	"github.com/sydlexius/colophon/internal/normalize"
	"github.com/sydlexius/colophon/internal/source"
	"github.com/sydlexius/colophon/internal/version"
)

const (
	defaultBaseURL = "https://www.loc.gov"
	requestTimeout = 20 * time.Second
	maxResults     = 5

	baselineISBNQuery = 62
	baselineTextQuery = 48
)

// locLanguages maps the full language names the catalog returns to the
// MARC-style codes normalize.Language understands.
var locLanguages = map[string]string{
	"english": "eng",
	"french":  "fre",
	"german":  "ger",
	"spanish": "spa",
}

// Adapter implements the source.Source interface for the Library of Congress.
type Adapter struct {
	client  *http.Client
	limiter *source.RateLimiterMap
	logger  *slog.Logger
	baseURL string
}

// New creates a Library of Congress adapter with the default base URL.
func New(limiter *source.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Library of Congress adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *source.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: requestTimeout},
		limiter: limiter,
		logger:  logger.With(slog.String("source", "loc")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the source name.
func (a *Adapter) Name() source.Name { return source.NameLoC }

// Fetch issues one catalog search per derived query and maps results into raw
// candidates. Individual query failures contribute zero candidates; an error
// is returned only when every query failed.
func (a *Adapter) Fetch(ctx context.Context, hint source.Hint) ([]source.Candidate, error) {
	var candidates []source.Candidate
	var lastErr error

	for _, q := range hint.Queries() {
		results, err := a.search(ctx, q)
		if err != nil {
			a.logger.Debug("query failed",
				slog.String("query", q.Text),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		for _, r := range results {
			if c, ok := a.mapResult(r, q); ok {
				candidates = append(candidates, c)
			}
		}
	}

	if len(candidates) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return candidates, nil
}

// search executes one /search/?fo=json request against the books facet.
func (a *Adapter) search(ctx context.Context, q source.Query) ([]map[string]any, error) {
	if err := a.limiter.Wait(ctx, source.NameLoC); err != nil {
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameLoC,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"q":  {q.Text},
		"fo": {"json"},
		"c":  {strconv.Itoa(maxResults)},
		"fa": {"partof:catalog"},
	}
	reqURL := a.baseURL + "/search/?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return resp.Results, nil
}

// doRequest executes an HTTP GET with standard headers.
func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &source.ErrSourceUnavailable{Source: source.NameLoC, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameLoC,
			Cause:  fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
}

// mapResult converts one catalog result into the candidate schema. Results
// vary in shape between records, so every field goes through loosejson.
// Returns false for results with no usable title.
func (a *Adapter) mapResult(m map[string]any, q source.Query) (source.Candidate, bool) {
	r := loosejson.Wrap(m)

	title := normalize.Text(r.Member("title").FirstString())
	if title == "" {
		return source.Candidate{}, false
	}
	label := source.NameLoC.DisplayName()

	c := source.Candidate{
		Kind:        kindFromFormats(r.Member("original_format").AsStringList()),
		Title:       title,
		Authors:     normalize.Authors(r.Member("contributor").AsStringList()),
		Source:      label,
		ValidatedBy: []string{label},
		Confidence:  baselineTextQuery,
	}
	if q.IsISBN {
		c.Confidence = baselineISBNQuery
	}

	imprint := r.Member("item").Member("created_published").FirstString()
	publisher, imprintYear := publisherFromImprint(imprint)
	c.Publisher = normalize.Text(publisher)

	c.PublishedYear = normalize.FirstYear(r.Member("date").FirstString())
	if c.PublishedYear == "" {
		c.PublishedYear = imprintYear
	}

	if lang := r.Member("language").FirstString(); lang != "" {
		c.Language = mapLanguage(lang)
	}

	description := strings.Join(r.Member("description").AsStringList(), " ")
	c.ISBN = normalize.ExtractISBN(description)
	c.DOI = normalize.ExtractDOI(description)

	if u := r.Member("url").AsString(); u != "" {
		c.SourceURL = u
	} else {
		c.SourceURL = r.Member("id").AsString()
	}
	return c, true
}

// kindFromFormats maps the catalog's original_format values onto a candidate
// kind. Books and monographs count as books, periodicals and articles as
// papers, anything else stays unknown.
func kindFromFormats(formats []string) source.Kind {
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "book", "books", "monograph":
			return source.KindBook
		case "periodical", "periodicals", "article", "articles", "journal":
			return source.KindPaper
		}
	}
	return source.KindUnknown
}

// publisherFromImprint pulls publisher and year out of an imprint string like
// "New York : Norton, 1999." The publisher is the segment after the first
// colon, cut at the year or at the first comma or period.
func publisherFromImprint(imprint string) (publisher, year string) {
	year = normalize.FirstYear(imprint)

	_, rest, found := strings.Cut(imprint, ":")
	if !found {
		return "", year
	}
	if year != "" {
		if i := strings.Index(rest, year); i >= 0 {
			rest = rest[:i]
		}
	}
	if i := strings.IndexAny(rest, ",."); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest), year
}

// mapLanguage converts the catalog's full language names ("english") to
// two-letter codes via their MARC equivalents.
func mapLanguage(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if code, ok := locLanguages[key]; ok {
		return normalize.Language(code)
	}
	return normalize.Language(key)
}

func userAgent() string {
	return fmt.Sprintf("colophon/%s (https://github.com/sydlexius/colophon)", version.Version)
}
