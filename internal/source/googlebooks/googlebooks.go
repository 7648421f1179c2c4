// Package googlebooks implements the Google Books volumes search adapter.
package googlebooks

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
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	requestTimeout = 20 * time.Second
	maxVolumes     = 5

	baselineISBNQuery = 64
	baselineTextQuery = 55
)

// Adapter implements the source.Source interface for Google Books. An API
// key is optional; the public volumes endpoint serves anonymous queries at a
// lower quota.
type Adapter struct {
	client  *http.Client
	limiter *source.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	apiKey  string
}

// New creates a Google Books adapter with the default base URL.
func New(limiter *source.RateLimiterMap, logger *slog.Logger, apiKey string) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL, apiKey)
}

// NewWithBaseURL creates a Google Books adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *source.RateLimiterMap, logger *slog.Logger, baseURL, apiKey string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: requestTimeout},
		limiter: limiter,
		logger:  logger.With(slog.String("source", "googlebooks")),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name returns the source name.
func (a *Adapter) Name() source.Name { return source.NameGoogleBooks }

// Fetch issues one volumes query per derived query string. Individual query
// failures contribute zero candidates; an error is returned only when every
// query failed.
func (a *Adapter) Fetch(ctx context.Context, hint source.Hint) ([]source.Candidate, error) {
	var candidates []source.Candidate
	var lastErr error

	for _, q := range hint.Queries() {
		items, err := a.search(ctx, q)
		if err != nil {
			a.logger.Debug("query failed",
				slog.String("query", q.Text),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		for _, item := range items {
			candidates = append(candidates, mapVolume(&item, q))
		}
	}

	if len(candidates) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return candidates, nil
}

func (a *Adapter) search(ctx context.Context, q source.Query) ([]volumeItem, error) {
	if err := a.limiter.Wait(ctx, source.NameGoogleBooks); err != nil {
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameGoogleBooks,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	term := q.Text
	if q.IsISBN {
		term = "isbn:" + q.Text
	}
	params := url.Values{
		"q":          {term},
		"maxResults": {strconv.Itoa(maxVolumes)},
	}
	if a.apiKey != "" {
		params.Set("key", a.apiKey)
	}
	reqURL := a.baseURL + "/volumes?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing volumes response: %w", err)
	}
	return resp.Items, nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &source.ErrSourceUnavailable{Source: source.NameGoogleBooks, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameGoogleBooks,
			Cause:  fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
}

// mapVolume converts a volume item into the canonical candidate schema.
func mapVolume(item *volumeItem, q source.Query) source.Candidate {
	label := source.NameGoogleBooks.DisplayName()
	info := item.VolumeInfo

	c := source.Candidate{
		Kind:          kindFromPrintType(info.PrintType),
		Title:         normalize.Text(info.Title),
		Subtitle:      normalize.Text(info.Subtitle),
		Authors:       normalize.Authors(info.Authors),
		Publisher:     normalize.Text(info.Publisher),
		PublishedYear: normalize.FirstYear(info.PublishedDate),
		Language:      normalize.Language(info.Language),
		ISBN:          pickIdentifier(info.IndustryIdentifiers),
		SourceURL:     info.InfoLink,
		Source:        label,
		ValidatedBy:   []string{label},
		Confidence:    baselineTextQuery,
	}
	if q.IsISBN {
		c.Confidence = baselineISBNQuery
	}
	if c.SourceURL == "" {
		c.SourceURL = info.CanonicalVolumeLink
	}
	return c
}

// pickIdentifier prefers an ISBN-13 over an ISBN-10; other identifier types
// (OCLC, LCCN) are ignored.
func pickIdentifier(ids []industryIdentifier) string {
	isbn10 := ""
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return normalize.ISBN(id.Identifier)
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = normalize.ISBN(id.Identifier)
			}
		}
	}
	return isbn10
}

func kindFromPrintType(printType string) source.Kind {
	switch strings.ToUpper(printType) {
	case "BOOK":
		return source.KindBook
	case "MAGAZINE":
		return source.KindPaper
	default:
		return source.KindUnknown
	}
}

func userAgent() string {
	return fmt.Sprintf("colophon/%s (https://github.com/sydlexius/colophon)", version.Version)
}
