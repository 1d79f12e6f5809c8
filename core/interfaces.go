// Package core defines the shared types and stage interfaces for PageGrep.
// Each stage of the search pipeline is a clean, testable interface.
package core

import (
	"context"

	"golang.org/x/net/html"
)

// Category selects one cached line set. "all" is the default when no
// structural filter is active.
type Category string

const (
	CategoryAll      Category = "all"
	CategoryCode     Category = "code"
	CategoryHeadings Category = "headings"
	CategoryLinks    Category = "links"
	CategoryImages   Category = "images"
)

// FilterCategories are the categories a caller may select explicitly.
// CategoryAll is implied by an empty filter list and is never a filter itself.
var FilterCategories = []Category{CategoryCode, CategoryHeadings, CategoryLinks, CategoryImages}

// ParseCategory returns the Category for a filter name, or false if unknown.
func ParseCategory(name string) (Category, bool) {
	for _, c := range FilterCategories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// NodeRef is a non-owning reference back to the DOM node a line came from.
// Deref returns nil once the node is no longer part of the live document;
// callers must treat that as "line is stale" and degrade gracefully.
type NodeRef interface {
	Deref() *html.Node
}

// TaggedLine is the atomic indexed unit: one normalized run of visible text.
// Tagged lines are immutable once produced; a changed document invalidates
// the whole cache slot instead of mutating lines in place.
type TaggedLine struct {
	Text      string // normalized display text, never empty
	LowerText string // precomputed lowercase form, avoids per-query allocation
	Tag       string // coarse structural tag: "code", "h2", "link", "image", ...
	Href      string // set only for link-tagged lines
	Ref       NodeRef
}

// GrepResult is the externally visible search hit. The DOM-derived fields
// (DOMContext, Heading, and Href for non-link lines) start empty and are
// filled in once, lazily, by the enricher when the result becomes the
// active selection.
type GrepResult struct {
	LineNumber int      `json:"line_number"` // 1-based position in the category's line list
	Text       string   `json:"text"`
	Tag        string   `json:"tag"`
	Score      int      `json:"score"`
	Context    []string `json:"context"`               // flat ±5 neighbor lines by index
	DOMContext []string `json:"dom_context,omitempty"` // structure-aware context, set by Enrich
	Heading    string   `json:"heading,omitempty"`     // nearest heading above the source node
	Href       string   `json:"href,omitempty"`

	// Ref points back at the source node for lazy enrichment. Nil or stale
	// refs make enrichment a no-op; the flat Context remains available.
	Ref NodeRef `json:"-"`
}

// Enriched reports whether DOM-aware context has already been derived.
func (r *GrepResult) Enriched() bool {
	return r.DOMContext != nil
}

// ChangeNotifier abstracts the host's content-change observation mechanism
// so tests can inject a fake document and simulate mutations. Subscribe
// registers a callback fired on every detected mutation and returns the
// matching unsubscribe function.
type ChangeNotifier interface {
	Subscribe(fn func()) (unsubscribe func())
}

// PageMetadata holds metadata about the searched page, attached to reports.
type PageMetadata struct {
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	FetchedAt string `json:"fetched_at"` // ISO8601
}

// Report is the complete JSON output for one executed query.
type Report struct {
	Metadata PageMetadata `json:"metadata"`
	Query    string       `json:"query"`
	Filters  []Category   `json:"filters,omitempty"`
	Results  []GrepResult `json:"results"`
}

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// Fetcher retrieves raw HTML from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Renderer converts an executed query's results into a final output format.
type Renderer interface {
	Render(report *Report) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
