// Package source loads the document a search session runs over and
// surfaces its content changes through the engine's ChangeNotifier
// interface. Two backends: local HTML files (fsnotify) and URLs
// (one-shot fetch, or polling with content-hash change detection).
package source

import (
	"sync"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
)

// Source is one loaded page: its live document, report metadata, and the
// change notification stream a session subscribes to.
type Source struct {
	doc      *dom.Document
	meta     core.PageMetadata
	notifier *Notifier

	mu   sync.Mutex
	stop func()
}

// Document returns the live document. Reloads swap its root in place, so
// the pointer stays valid for the session's lifetime.
func (s *Source) Document() *dom.Document {
	return s.doc
}

// Metadata returns report metadata for the page.
func (s *Source) Metadata() core.PageMetadata {
	return s.meta
}

// Notifier returns the change notification stream for this source.
func (s *Source) Notifier() core.ChangeNotifier {
	return s.notifier
}

// Close stops any background watching or polling. Safe to call twice.
func (s *Source) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// reload parses new content and swaps it into the live document, then
// signals subscribers. Parse failures keep the previous tree; a partial
// document is worse than a briefly stale one.
func (s *Source) reload(rawHTML string) {
	parsed, err := dom.Parse(rawHTML)
	if err != nil {
		return
	}
	s.doc.SetRoot(parsed.Root())
	s.notifier.Notify()
}

// Notifier is a simple fan-out implementation of core.ChangeNotifier.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func())}
}

// Subscribe registers fn for change signals and returns its unsubscribe
// function.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Notify fires every subscribed callback. Callbacks run outside the lock
// so they may unsubscribe themselves.
func (n *Notifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
