// URL-backed sources. PollURL re-fetches on an interval and uses an
// xxhash digest of the body to decide whether the page actually changed,
// so an unchanged page never invalidates the session cache.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
	"github.com/gaurav-prasanna/pagegrep/core/fetch"
	"github.com/gaurav-prasanna/pagegrep/logger"
)

// FetchURL loads a page once as a static snapshot.
func FetchURL(ctx context.Context, rawURL string, fetcher core.Fetcher) (*Source, error) {
	result, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	doc, err := dom.Parse(result.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	return &Source{
		doc:      doc,
		notifier: NewNotifier(),
		meta:     fetch.Metadata(rawURL, doc),
	}, nil
}

// PollURL loads a page and re-fetches it every interval, reloading the
// document only when the body's content hash changes.
func PollURL(ctx context.Context, rawURL string, fetcher core.Fetcher, interval time.Duration) (*Source, error) {
	result, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	doc, err := dom.Parse(result.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	src := &Source{
		doc:      doc,
		notifier: NewNotifier(),
		meta:     fetch.Metadata(rawURL, doc),
	}

	lastHash := xxhash.Sum64String(result.HTML)
	pollCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				result, err := fetcher.Fetch(pollCtx, rawURL)
				if err != nil {
					logger.Debug("source: poll %s: %v", rawURL, err)
					continue
				}
				hash := xxhash.Sum64String(result.HTML)
				if hash == lastHash {
					continue
				}
				lastHash = hash
				logger.Debug("source: %s changed, reloading", rawURL)
				src.reload(result.HTML)
			case <-pollCtx.Done():
				return
			}
		}
	}()

	src.stop = cancel
	return src, nil
}
