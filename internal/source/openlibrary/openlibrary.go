// Package openlibrary implements the Open Library search adapter.
package openlibrary

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

	"github.com/sydlexius/colophon/internal/normalize"
	"github.com/sydlexius/colophon/internal/source"
	"github.com/sydlexius/colophon/internal/version"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	requestTimeout = 20 * time.Second
	maxDocs        = 5

	// Baseline confidences per query type. Identifier queries are inherently
	// higher-precision than free-text ones.
	baselineISBNQuery = 64
	baselineTextQuery = 52
)

// Adapter implements the source.Source interface for Open Library.
type Adapter struct {
	client  *http.Client
	limiter *source.RateLimiterMap
	logger  *slog.Logger
	baseURL string
}

// New creates an Open Library adapter with the default base URL.
func New(limiter *source.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates an Open Library adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *source.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: requestTimeout},
		limiter: limiter,
		logger:  logger.With(slog.String("source", "openlibrary")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the source name.
func (a *Adapter) Name() source.Name { return source.NameOpenLibrary }

// Fetch issues one search per derived query and maps the docs into raw
// candidates. Individual query failures contribute zero candidates; an error
// is returned only when every query failed.
func (a *Adapter) Fetch(ctx context.Context, hint source.Hint) ([]source.Candidate, error) {
	var candidates []source.Candidate
	var lastErr error

	for _, q := range hint.Queries() {
		docs, err := a.search(ctx, q)
		if err != nil {
			a.logger.Debug("query failed",
				slog.String("query", q.Text),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		for _, d := range docs {
			candidates = append(candidates, a.mapDoc(&d, q))
		}
	}

	if len(candidates) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return candidates, nil
}

// search executes one search.json request.
func (a *Adapter) search(ctx context.Context, q source.Query) ([]searchDoc, error) {
	if err := a.limiter.Wait(ctx, source.NameOpenLibrary); err != nil {
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameOpenLibrary,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	term := q.Text
	if q.IsISBN {
		term = "isbn:" + q.Text
	}
	params := url.Values{
		"q":      {term},
		"limit":  {strconv.Itoa(maxDocs)},
		"fields": {"key,title,subtitle,author_name,publisher,first_publish_year,language,isbn"},
	}
	reqURL := a.baseURL + "/search.json?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return resp.Docs, nil
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
		return nil, &source.ErrSourceUnavailable{Source: source.NameOpenLibrary, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameOpenLibrary,
			Cause:  fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
}

// mapDoc converts a search doc into the canonical candidate schema.
func (a *Adapter) mapDoc(d *searchDoc, q source.Query) source.Candidate {
	label := source.NameOpenLibrary.DisplayName()

	c := source.Candidate{
		Kind:        source.KindBook,
		Title:       normalize.Text(d.Title),
		Subtitle:    normalize.Text(d.Subtitle),
		Authors:     normalize.Authors(d.AuthorName),
		ISBN:        pickISBN(d.ISBN, q),
		Source:      label,
		ValidatedBy: []string{label},
		Confidence:  baselineTextQuery,
	}
	if q.IsISBN {
		c.Confidence = baselineISBNQuery
	}
	if len(d.Publisher) > 0 {
		c.Publisher = normalize.Text(d.Publisher[0])
	}
	if d.FirstPublishYear > 0 {
		c.PublishedYear = normalize.FirstYear(strconv.Itoa(d.FirstPublishYear))
	}
	if len(d.Language) > 0 {
		c.Language = normalize.Language(d.Language[0])
	}
	if d.Key != "" {
		c.SourceURL = a.baseURL + d.Key
	}
	return c
}

// pickISBN chooses one ISBN for the candidate: the queried one when the doc
// corroborates it, else the first ISBN-13, else the first entry.
func pickISBN(list []string, q source.Query) string {
	if len(list) == 0 {
		return ""
	}
	if q.IsISBN {
		for _, raw := range list {
			if normalize.ISBN(raw) == q.Text {
				return q.Text
			}
		}
	}
	for _, raw := range list {
		if n := normalize.ISBN(raw); len(n) == 13 {
			return n
		}
	}
	return normalize.ISBN(list[0])
}

func userAgent() string {
	return fmt.Sprintf("colophon/%s (https://github.com/sydlexius/colophon)", version.Version)
}
