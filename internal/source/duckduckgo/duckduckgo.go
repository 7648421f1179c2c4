// Package duckduckgo implements the web-search-based catalog adapter. It
// scrapes DuckDuckGo results for book catalog pages: the primary path pulls
// the result payload embedded in the d.js JS-assignment block; when that
// fails, the plain HTML results page is parsed instead.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sydlexius/colophon/internal/normalize"
	"github.com/sydlexius/colophon/internal/source"
)

const (
	defaultBaseURL = "https://links.duckduckgo.com"
	htmlBaseURL    = "https://html.duckduckgo.com"
	requestTimeout = 20 * time.Second
	maxHits        = 5

	// Web search results are the least precise source; even an ISBN query
	// only narrows the result page, it does not hit a bibliographic index.
	baselineISBNQuery = 58
	baselineTextQuery = 42

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var (
	vqdRegex = regexp.MustCompile(`vqd=([0-9-]+)`)
	// payloadRegex captures the JSON array assigned to the page layout in
	// the d.js response body.
	payloadRegex = regexp.MustCompile(`(?s)DDG\.pageLayout\.load\('d',(\[.*?\])\s*\)`)
)

// Adapter implements the source.Source interface for DuckDuckGo web search.
type Adapter struct {
	client  *http.Client
	limiter *source.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	htmlURL string
}

// New creates a DuckDuckGo adapter with default URLs.
func New(limiter *source.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL, htmlBaseURL)
}

// NewWithBaseURL creates a DuckDuckGo adapter with custom base URLs (for testing).
func NewWithBaseURL(limiter *source.RateLimiterMap, logger *slog.Logger, baseURL, htmlURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: requestTimeout},
		limiter: limiter,
		logger:  logger.With(slog.String("source", "duckduckgo")),
		baseURL: strings.TrimRight(baseURL, "/"),
		htmlURL: strings.TrimRight(htmlURL, "/"),
	}
}

// Name returns the source name.
func (a *Adapter) Name() source.Name { return source.NameWebSearch }

// Fetch runs each derived query through web search and maps the result hits
// into raw candidates. Per-query failures are swallowed.
func (a *Adapter) Fetch(ctx context.Context, hint source.Hint) ([]source.Candidate, error) {
	var candidates []source.Candidate
	var lastErr error

	for _, q := range hint.Queries() {
		hits, err := a.search(ctx, q.Text)
		if err != nil {
			a.logger.Debug("query failed",
				slog.String("query", q.Text),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		count := 0
		for _, hit := range hits {
			c, ok := mapHit(hit, q)
			if !ok {
				continue
			}
			candidates = append(candidates, c)
			count++
			if count >= maxHits {
				break
			}
		}
	}

	if len(candidates) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return candidates, nil
}

// search tries the d.js payload first and falls back to the HTML results page.
func (a *Adapter) search(ctx context.Context, query string) ([]resultHit, error) {
	hits, err := a.searchPayload(ctx, query)
	if err == nil {
		return hits, nil
	}
	a.logger.Debug("payload search failed, trying html fallback",
		slog.String("error", err.Error()))
	return a.searchHTML(ctx, query)
}

// searchPayload fetches the d.js endpoint and extracts the result array
// embedded in its JS-assignment block.
func (a *Adapter) searchPayload(ctx context.Context, query string) ([]resultHit, error) {
	vqd, err := a.getVQDToken(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("getting VQD token: %w", err)
	}

	if err := a.limiter.Wait(ctx, source.NameWebSearch); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{
		"l":   {"us-en"},
		"o":   {"json"},
		"q":   {query},
		"vqd": {vqd},
	}
	reqURL := a.baseURL + "/d.js?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", a.htmlURL+"/")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &source.ErrSourceUnavailable{Source: source.NameWebSearch, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameWebSearch,
			Cause:  fmt.Errorf("d.js returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}

	matches := payloadRegex.FindSubmatch(body)
	if len(matches) < 2 {
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameWebSearch,
			Cause:  fmt.Errorf("result payload not found in d.js response"),
		}
	}

	var hits []resultHit
	if err := json.Unmarshal(matches[1], &hits); err != nil {
		return nil, fmt.Errorf("parsing embedded payload: %w", err)
	}
	return hits, nil
}

// getVQDToken obtains the validation query digest token from the HTML frontend.
func (a *Adapter) getVQDToken(ctx context.Context, query string) (string, error) {
	if err := a.limiter.Wait(ctx, source.NameWebSearch); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.htmlURL+"/html/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", &source.ErrSourceUnavailable{
			Source: source.NameWebSearch,
			Cause:  fmt.Errorf("VQD request returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", err
	}

	matches := vqdRegex.FindSubmatch(body)
	if len(matches) < 2 {
		return "", &source.ErrSourceUnavailable{
			Source: source.NameWebSearch,
			Cause:  fmt.Errorf("VQD token not found in response"),
		}
	}
	return string(matches[1]), nil
}

// searchHTML fetches and parses the plain HTML results page.
func (a *Adapter) searchHTML(ctx context.Context, query string) ([]resultHit, error) {
	if err := a.limiter.Wait(ctx, source.NameWebSearch); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{"q": {query}}
	reqURL := a.htmlURL + "/html/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &source.ErrSourceUnavailable{Source: source.NameWebSearch, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameWebSearch,
			Cause:  fmt.Errorf("html search returned status %d", resp.StatusCode),
		}
	}

	return parseResultsPage(io.LimitReader(resp.Body, 2*1024*1024))
}

// mapHit converts one search hit into a candidate. Returns false for hits
// with no usable title.
func mapHit(hit resultHit, q source.Query) (source.Candidate, bool) {
	title := normalize.Text(hit.Title)
	if title == "" {
		return source.Candidate{}, false
	}
	abstract := normalize.Text(hit.Abstract)
	label := source.NameWebSearch.DisplayName()

	authors, publisher, year := splitAbstract(abstract)

	c := source.Candidate{
		Kind:          source.KindUnknown,
		Title:         title,
		Authors:       normalize.Authors(authors),
		Publisher:     normalize.Text(publisher),
		PublishedYear: year,
		ISBN:          normalize.ExtractISBN(abstract),
		DOI:           normalize.ExtractDOI(hit.URL + " " + abstract),
		SourceURL:     hit.URL,
		Source:        label,
		ValidatedBy:   []string{label},
		Confidence:    baselineTextQuery,
	}
	if q.IsISBN {
		c.Confidence = baselineISBNQuery
	}
	switch {
	case c.DOI != "":
		c.Kind = source.KindPaper
	case c.ISBN != "" || c.Publisher != "":
		c.Kind = source.KindBook
	}
	return c, true
}

// splitAbstract assigns the "/"-delimited tokens of a catalog abstract to
// authors, publisher, and year. The token immediately preceding the first
// year-like token is the publisher and everything before it the authors;
// with no year token, the second-to-last token is taken as publisher.
// Best-effort: implausible shapes yield empty results, never an error.
func splitAbstract(abstract string) (authors []string, publisher, year string) {
	var tokens []string
	for _, tok := range strings.Split(abstract, "/") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) < 2 {
		return nil, "", ""
	}

	yearIdx := -1
	for i, tok := range tokens {
		if y := normalize.FirstYear(tok); y != "" {
			yearIdx = i
			year = y
			break
		}
	}

	switch {
	case yearIdx > 0:
		publisher = tokens[yearIdx-1]
		authors = tokens[:yearIdx-1]
	case yearIdx == 0:
		// year first leaves nothing to assign
	default:
		publisher = tokens[len(tokens)-2]
		authors = tokens[:len(tokens)-2]
	}
	return authors, publisher, year
}
