// File-backed sources. WatchFile keeps the document live: fsnotify events
// on the backing file trigger a re-parse and a change signal, which the
// session's cache turns into a debounced invalidation.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
	"github.com/gaurav-prasanna/pagegrep/logger"
)

// OpenFile loads a local HTML file as a static snapshot (no watching).
func OpenFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := dom.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Source{
		doc:      doc,
		notifier: NewNotifier(),
		meta: core.PageMetadata{
			URL:       "file://" + abs,
			Path:      abs,
			Title:     doc.Title(),
			FetchedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// WatchFile loads a local HTML file and watches it for modification.
// The watch is on the containing directory because editors commonly
// replace files instead of writing them in place.
func WatchFile(path string) (*Source, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				data, err := os.ReadFile(abs)
				if err != nil {
					continue // mid-replace; the next event will catch up
				}
				logger.Debug("source: %s changed, reloading", abs)
				src.reload(string(data))
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	src.stop = func() {
		close(done)
		watcher.Close()
	}
	return src, nil
}
