package grep

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
)

// fakeNotifier drives mutation signals by hand.
type fakeNotifier struct {
	fns []func()
}

func (f *fakeNotifier) Subscribe(fn func()) func() {
	f.fns = append(f.fns, fn)
	return func() { f.fns = nil }
}

func (f *fakeNotifier) fire() {
	for _, fn := range f.fns {
		fn()
	}
}

func newTestSession(t *testing.T, rawHTML string) *Session {
	t.Helper()
	doc, err := dom.Parse(rawHTML)
	require.NoError(t, err)
	return NewSession(doc, "", nil, 0)
}

func TestSearch_EmptyQueryYieldsNothing(t *testing.T) {
	s := newTestSession(t, "<html><body><p>content</p></body></html>")
	assert.Empty(t, s.Search("", nil))
	assert.Empty(t, s.Search("   ", nil))
}

func TestSearch_SingleCharacterFindsSubstring(t *testing.T) {
	s := newTestSession(t, "<html><body><p>quartz</p><p>other</p></body></html>")
	results := s.Search("q", nil)
	require.NotEmpty(t, results)
	assert.Contains(t, strings.ToLower(results[0].Text), "q")
}

func TestSearch_QueryNormalization(t *testing.T) {
	s := newTestSession(t, "<html><body><p>Alpha Beta</p></body></html>")
	loose := s.Search("  ALPHA    beta ", nil)
	tight := s.Search("alpha beta", nil)
	require.NotEmpty(t, loose)
	assert.Equal(t, tight, loose)
}

func TestSearch_RankingScenario(t *testing.T) {
	s := newTestSession(t, `<html><body>
		<p>Alpha Beta</p>
		<p>alphabetical order</p>
		<p>zzz</p>
	</body></html>`)

	results := s.Search("alp", nil)
	require.Len(t, results, 2, "zzz must not match")
	assert.Equal(t, "Alpha Beta", results[0].Text)
	assert.Equal(t, "alphabetical order", results[1].Text)
}

func TestSearch_ResultCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < MaxResults+50; i++ {
		fmt.Fprintf(&b, "<p>match %d</p>", i)
	}
	b.WriteString("</body></html>")

	s := newTestSession(t, b.String())
	results := s.Search("match", nil)
	assert.Len(t, results, MaxResults)
}

func TestSearch_FilterSelectsCategory(t *testing.T) {
	s := newTestSession(t, `<html><body>
		<h2>install guide</h2>
		<p>install prose</p>
		<pre>make install</pre>
	</body></html>`)

	results := s.Search("install", []core.Category{core.CategoryCode})
	require.Len(t, results, 1)
	assert.Equal(t, "make install", results[0].Text)
	assert.Equal(t, "code", results[0].Tag)
}

func TestSearch_FilterUnion(t *testing.T) {
	s := newTestSession(t, `<html><body>
		<pre>grep code</pre>
		<a href="/g">grep link</a>
		<p>grep prose</p>
	</body></html>`)

	codeOnly := s.Search("grep", []core.Category{core.CategoryCode})
	both := s.Search("grep", []core.Category{core.CategoryCode, core.CategoryLinks})

	// The union contains every code-filter hit plus the link hits, with no
	// cross-category de-duplication.
	assert.Greater(t, len(both), len(codeOnly))
	byText := map[string]bool{}
	for _, r := range both {
		byText[r.Text] = true
	}
	for _, r := range codeOnly {
		assert.True(t, byText[r.Text], "union must contain %q", r.Text)
	}
	assert.False(t, byText["grep prose"], "all-text lines must not leak into filtered results")
}

func TestSearch_FlatContextWindow(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "<p>row %02d</p>", i)
	}
	b.WriteString("</body></html>")

	s := newTestSession(t, b.String())
	results := s.Search("row 10", nil)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "row 10", top.Text)
	assert.Equal(t, 10, top.LineNumber)
	// ±5 lines around index 9: rows 05 through 15.
	require.Len(t, top.Context, 11)
	assert.Equal(t, "row 05", top.Context[0])
	assert.Equal(t, "row 15", top.Context[10])
}

func TestSearch_FlatContextClampedAtEdges(t *testing.T) {
	s := newTestSession(t, `<html><body><p>only line</p></body></html>`)
	results := s.Search("only", nil)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"only line"}, results[0].Context)
}

func TestSearch_ResultsCarryFlatContextOnly(t *testing.T) {
	s := newTestSession(t, "<html><body><p>lazy fields</p></body></html>")
	results := s.Search("lazy", nil)
	require.Len(t, results, 1)
	assert.False(t, results[0].Enriched())
	assert.Empty(t, results[0].Heading)
}

func TestSession_InvalidationRebuild(t *testing.T) {
	doc, err := dom.Parse("<html><body><p>original text</p></body></html>")
	require.NoError(t, err)
	notifier := &fakeNotifier{}
	s := NewSession(doc, "", notifier, 20*time.Millisecond)
	s.StartIndexing()
	defer s.StopIndexing()

	require.Len(t, s.Search("original", nil), 1)

	// Simulate a re-render: new tree, then the mutation signal.
	replaced, err := dom.Parse("<html><body><p>replaced text</p></body></html>")
	require.NoError(t, err)
	doc.SetRoot(replaced.Root())
	notifier.fire()

	assert.Eventually(t, func() bool {
		return len(s.Search("replaced", nil)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, s.Search("original", nil))
}

func TestStopIndexing_AllowsRestart(t *testing.T) {
	doc, err := dom.Parse("<html><body><p>content</p></body></html>")
	require.NoError(t, err)
	notifier := &fakeNotifier{}
	s := NewSession(doc, "", notifier, 10*time.Millisecond)

	s.StartIndexing()
	require.Len(t, s.Search("content", nil), 1)
	s.StopIndexing()
	assert.Empty(t, notifier.fns)

	s.StartIndexing()
	defer s.StopIndexing()
	assert.Len(t, s.Search("content", nil), 1)
}
