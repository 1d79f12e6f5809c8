// Package grep ties the pipeline together: one Session per open search,
// owning the line cache and answering queries over the live document.
// Sessions are explicit objects so independent searches (and tests) never
// share state.
package grep

import (
	"sort"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/cache"
	"github.com/gaurav-prasanna/pagegrep/core/collect"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
	"github.com/gaurav-prasanna/pagegrep/core/enrich"
	"github.com/gaurav-prasanna/pagegrep/core/fuzzy"
)

const (
	// MaxResults caps a single query's result list.
	MaxResults = 200

	// scanMultiplier bounds worst-case latency: scoring stops once
	// scanMultiplier × MaxResults candidates have matched. Ranking quality
	// can degrade on extremely large filtered sets; accepted tradeoff.
	scanMultiplier = 3

	// contextRadius is the flat context window, in lines, either side of
	// a match.
	contextRadius = 5
)

// Session owns the cached index for one open search over one document.
type Session struct {
	doc      *dom.Document
	cache    *cache.Cache
	notifier core.ChangeNotifier
}

// NewSession builds a Session over doc. baseURL resolves relative link
// hrefs and may be empty. notifier delivers document-mutation signals and
// may be nil (no invalidation, e.g. static snapshots). debounce <= 0 uses
// the cache default.
func NewSession(doc *dom.Document, baseURL string, notifier core.ChangeNotifier, debounce time.Duration) *Session {
	return &Session{
		doc:      doc,
		cache:    cache.New(collect.New(doc, baseURL), debounce),
		notifier: notifier,
	}
}

// StartIndexing begins observing document mutations. Call on search open.
func (s *Session) StartIndexing() {
	s.cache.Watch(s.notifier)
}

// StopIndexing tears down observation and discards cached state. Call on
// search close; the session may be started again afterwards.
func (s *Session) StopIndexing() {
	s.cache.Unwatch()
}

// Document returns the live document this session searches.
func (s *Session) Document() *dom.Document {
	return s.doc
}

// Search runs one query over the line set selected by filters and returns
// ranked results, capped at MaxResults. Filters combine by union in
// declaration order; no filters means the all-text category. Results carry
// flat context only; DOM-aware fields are filled lazily by Enrich.
func (s *Session) Search(query string, filters []core.Category) []core.GrepResult {
	query = normalizeQuery(query)
	if query == "" {
		return nil
	}

	lines := s.workingSet(filters)
	matches := scoreLines(query, lines)

	// Sort by score descending; ties keep scan order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}

	results := make([]core.GrepResult, 0, len(matches))
	for _, m := range matches {
		line := lines[m.index]
		results = append(results, core.GrepResult{
			LineNumber: m.index + 1,
			Text:       line.Text,
			Tag:        line.Tag,
			Score:      m.score,
			Context:    flatContext(lines, m.index),
			Href:       line.Href,
			Ref:        line.Ref,
		})
	}
	return results
}

// Enrich derives DOM-aware context for one result, in place. Idempotent;
// silently a no-op when the source node is gone.
func (s *Session) Enrich(r *core.GrepResult) {
	enrich.Enrich(r)
}

// scoredMatch pairs a working-set index with its query score.
type scoredMatch struct {
	index int
	score int
}

// scoreLines scores every line until the scan cap is hit.
func scoreLines(query string, lines []core.TaggedLine) []scoredMatch {
	scanCap := MaxResults * scanMultiplier
	var matches []scoredMatch
	for i := range lines {
		score, ok := fuzzy.Match(query, lines[i].LowerText)
		if !ok {
			continue
		}
		matches = append(matches, scoredMatch{index: i, score: score})
		if len(matches) >= scanCap {
			break
		}
	}
	return matches
}

// workingSet resolves the active filters to one ordered line list.
// Categories are concatenated in filter-declaration order with no
// cross-category de-duplication.
func (s *Session) workingSet(filters []core.Category) []core.TaggedLine {
	if len(filters) == 0 {
		return s.cache.Get(core.CategoryAll)
	}
	if len(filters) == 1 {
		return s.cache.Get(filters[0])
	}
	var lines []core.TaggedLine
	for _, f := range filters {
		lines = append(lines, s.cache.Get(f)...)
	}
	return lines
}

// flatContext returns the ±contextRadius neighboring line texts around
// index, clamped to the list bounds.
func flatContext(lines []core.TaggedLine, index int) []string {
	start := index - contextRadius
	if start < 0 {
		start = 0
	}
	end := index + contextRadius
	if end > len(lines)-1 {
		end = len(lines) - 1
	}
	context := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		context = append(context, lines[i].Text)
	}
	return context
}

// normalizeQuery lowercases, collapses internal whitespace, and trims.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
