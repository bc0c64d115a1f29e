// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich annotates retained concepts with encyclopedia summaries
// and optional translations, producing a YAML glossary.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/concept-refinery/internal/httputil"
)

// ErrNotFound marks a concept with no encyclopedia entry. Callers treat it
// as a gap, not a failure.
var ErrNotFound = errors.New("no encyclopedia entry")

// wikipediaSummaryBase is the REST summary endpoint pattern. Declared as a
// var so tests can substitute an httptest server.
var wikipediaSummaryBase = "https://%s.wikipedia.org/api/rest_v1/page/summary/"

// WikipediaClient fetches article summaries from one language edition.
type WikipediaClient struct {
	Client     *http.Client
	Language   string
	UserAgent  string
	MaxRetries int
}

// Summary is the subset of the REST summary payload the glossary uses.
type Summary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     string `json:"-"`
}

type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Lookup fetches the summary for a concept. A 404 returns ErrNotFound.
func (c *WikipediaClient) Lookup(ctx context.Context, concept string) (Summary, error) {
	lang := c.Language
	if lang == "" {
		lang = "en"
	}
	reqURL := fmt.Sprintf(wikipediaSummaryBase, lang) + url.PathEscape(concept)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, c.MaxRetries)
	if err != nil {
		return Summary{}, fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Summary{}, fmt.Errorf("%q: %w", concept, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return Summary{}, fmt.Errorf("wikipedia returned HTTP %d for %q", resp.StatusCode, concept)
	}

	var sr summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Summary{}, fmt.Errorf("parsing summary response: %w", err)
	}

	return Summary{
		Title:   sr.Title,
		Extract: sr.Extract,
		URL:     sr.ContentURLs.Desktop.Page,
	}, nil
}
