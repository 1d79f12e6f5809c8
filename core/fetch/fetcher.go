// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with sensible defaults for retrieving a
// single page, and derives report metadata from the URL and response.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "PageGrep/1.0 (https://github.com/gaurav-prasanna/pagegrep)"
)

// HTTPFetcher fetches web pages via HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// New creates an HTTPFetcher with a sensible timeout.
func New() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.FetchResult{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

// Metadata builds report metadata from the page URL and its parsed document.
func Metadata(rawURL string, doc *dom.Document) core.PageMetadata {
	parsed, _ := url.Parse(rawURL)

	meta := core.PageMetadata{
		URL:       rawURL,
		Title:     doc.Title(),
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if parsed != nil {
		meta.Domain = parsed.Host
		meta.Path = parsed.Path
	}
	return meta
}
