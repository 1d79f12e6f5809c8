package enrich_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
	"github.com/gaurav-prasanna/pagegrep/core/enrich"
	"github.com/gaurav-prasanna/pagegrep/core/grep"
)

func newSession(t *testing.T, rawHTML string) (*grep.Session, *dom.Document) {
	t.Helper()
	doc, err := dom.Parse(rawHTML)
	require.NoError(t, err)
	return grep.NewSession(doc, "", nil, 0), doc
}

// twentyLineBlock builds a code block of lines L1..L20 with "TODO fix" as
// line 12.
func twentyLineBlock() string {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = fmt.Sprintf("L%d", i+1)
	}
	lines[11] = "TODO fix"
	return "<html><body><pre>" + strings.Join(lines, "\n") + "</pre></body></html>"
}

func TestEnrich_CodeWindow(t *testing.T) {
	s, _ := newSession(t, twentyLineBlock())

	results := s.Search("todo", []core.Category{core.CategoryCode})
	require.Len(t, results, 1)

	s.Enrich(&results[0])

	// ±5 lines around the 0-indexed match position 11: lines 7–17.
	require.Len(t, results[0].DOMContext, 11)
	assert.Equal(t, "L7", results[0].DOMContext[0])
	assert.Equal(t, "TODO fix", results[0].DOMContext[5])
	assert.Equal(t, "L17", results[0].DOMContext[10])
}

func TestEnrich_CodeTabsExpanded(t *testing.T) {
	s, _ := newSession(t, "<html><body><pre>func f() {\n\treturn\n}</pre></body></html>")

	results := s.Search("return", []core.Category{core.CategoryCode})
	require.Len(t, results, 1)

	s.Enrich(&results[0])
	assert.Contains(t, results[0].DOMContext, "  return")
}

func TestEnrich_CodeFallbackWhenLineGone(t *testing.T) {
	s, _ := newSession(t, twentyLineBlock())

	results := s.Search("todo", []core.Category{core.CategoryCode})
	require.Len(t, results, 1)

	// Rewrite the block's content so the matched line can't be relocated,
	// keeping the block node itself attached.
	pre := results[0].Ref.Deref()
	require.NotNil(t, pre)
	pre.FirstChild.Data = strings.Join([]string{
		"N1", "N2", "N3", "N4", "N5", "N6", "N7", "N8", "N9", "N10", "N11", "N12", "N13",
	}, "\n")

	s.Enrich(&results[0])
	// Fallback: the block's first 11 lines.
	require.Len(t, results[0].DOMContext, 11)
	assert.Equal(t, "N1", results[0].DOMContext[0])
	assert.Equal(t, "N11", results[0].DOMContext[10])
}

func TestEnrich_ShortProseBlockReturnedWhole(t *testing.T) {
	s, _ := newSession(t, "<html><body><p>One sentence. And <em>another</em> one.</p></body></html>")

	results := s.Search("another", nil)
	require.NotEmpty(t, results)
	target := &results[0]
	require.Equal(t, "another", target.Text)

	s.Enrich(target)
	require.Len(t, target.DOMContext, 1)
	assert.Equal(t, "One sentence. And another one.", target.DOMContext[0])
}

func TestEnrich_SentenceWindowForLongProse(t *testing.T) {
	sentences := make([]string, 8)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence number %d carries enough words to pass the short block limit.", i+1)
	}
	// The match sits in sentence 5 (index 4) as its own text node.
	sentences[4] = "Sentence five holds the <em>rare needle</em> we search for."
	html := "<html><body><p>" + strings.Join(sentences, " ") + "</p></body></html>"

	s, _ := newSession(t, html)
	results := s.Search("needle", nil)
	require.NotEmpty(t, results)
	target := &results[0]
	require.Equal(t, "rare needle", target.Text)

	s.Enrich(target)
	// Two sentences either side of the matching one.
	require.Len(t, target.DOMContext, 5)
	assert.Contains(t, target.DOMContext[2], "rare needle")
	assert.Contains(t, target.DOMContext[0], "number 3")
	assert.Contains(t, target.DOMContext[4], "number 7")
}

func TestEnrich_NearestHeading(t *testing.T) {
	s, _ := newSession(t, `<html><body>
		<h1>Page Title</h1>
		<section>
			<h2>Install</h2>
			<p>run the setup binary</p>
		</section>
	</body></html>`)

	results := s.Search("setup", nil)
	require.Len(t, results, 1)
	s.Enrich(&results[0])
	assert.Equal(t, "Install", results[0].Heading)
}

func TestEnrich_HeadingFromAncestor(t *testing.T) {
	s, _ := newSession(t, "<html><body><h2>The <em>Answer</em></h2></body></html>")

	results := s.Search("answer", nil)
	require.NotEmpty(t, results)
	s.Enrich(&results[0])
	assert.Equal(t, "The Answer", results[0].Heading)
}

func TestEnrich_EnclosingHrefForLinkLines(t *testing.T) {
	// All-text collection tags link text "link" but captures no href;
	// enrichment recovers it from the enclosing anchor.
	s, _ := newSession(t, `<html><body><p>see <a href="/manual">the manual</a></p></body></html>`)

	results := s.Search("manual", nil)
	require.NotEmpty(t, results)
	target := &results[0]
	require.Equal(t, "link", target.Tag)
	require.Empty(t, target.Href)

	s.Enrich(target)
	assert.Equal(t, "/manual", target.Href)
}

func TestEnrich_Idempotent(t *testing.T) {
	s, _ := newSession(t, twentyLineBlock())

	results := s.Search("todo", []core.Category{core.CategoryCode})
	require.Len(t, results, 1)

	s.Enrich(&results[0])
	first := results[0]
	s.Enrich(&results[0])
	assert.Equal(t, first, results[0])
}

func TestEnrich_StaleRefNoOps(t *testing.T) {
	s, doc := newSession(t, "<html><body><h2>Top</h2><p>stale target</p></body></html>")

	results := s.Search("stale", nil)
	require.Len(t, results, 1)
	flat := results[0].Context

	// The document re-renders between query and enrichment.
	replaced, err := dom.Parse("<html><body><p>all new</p></body></html>")
	require.NoError(t, err)
	doc.SetRoot(replaced.Root())

	s.Enrich(&results[0])
	assert.False(t, results[0].Enriched())
	assert.Empty(t, results[0].Heading)
	assert.Equal(t, flat, results[0].Context, "flat context must survive")
}

func TestEnrich_NilRefNoOps(t *testing.T) {
	r := &core.GrepResult{Text: "orphan", Context: []string{"orphan"}}
	enrich.Enrich(r)
	assert.False(t, r.Enriched())
}
