package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, rawHTML string) *Document {
	t.Helper()
	doc, err := Parse(rawHTML)
	require.NoError(t, err)
	return doc
}

// findFirst returns the first element with the given tag, failing the test
// if absent.
func findFirst(t *testing.T, doc *Document, tag string) *html.Node {
	t.Helper()
	n := findElement(doc.Root(), tag)
	require.NotNil(t, n, "no <%s> in document", tag)
	return n
}

func TestParse_Title(t *testing.T) {
	doc := mustParse(t, "<html><head><title> My  Page </title></head><body></body></html>")
	assert.Equal(t, "My  Page", doc.Title())
}

func TestElementCountAndTextBytes(t *testing.T) {
	doc := mustParse(t, "<html><body><p>abcde</p></body></html>")
	// html, head, body, p
	assert.Equal(t, 4, doc.ElementCount())
	assert.Equal(t, 5, doc.TextBytes())
}

func TestNodeRef_LiveNode(t *testing.T) {
	doc := mustParse(t, "<html><body><p>hello</p></body></html>")
	p := findFirst(t, doc, "p")

	ref := doc.Ref(p)
	assert.Same(t, p, ref.Deref())
}

func TestNodeRef_DetachedNodeExpires(t *testing.T) {
	doc := mustParse(t, "<html><body><p>hello</p></body></html>")
	p := findFirst(t, doc, "p")
	ref := doc.Ref(p)

	p.Parent.RemoveChild(p)
	assert.Nil(t, ref.Deref())
}

func TestNodeRef_ExpiresOnReload(t *testing.T) {
	doc := mustParse(t, "<html><body><p>hello</p></body></html>")
	ref := doc.Ref(findFirst(t, doc, "p"))

	replacement, err := html.Parse(strings.NewReader("<html><body><p>other</p></body></html>"))
	require.NoError(t, err)
	doc.SetRoot(replacement)

	assert.Nil(t, ref.Deref())
}

func TestIsVisible(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<p id="plain">text</p>
		<script>var x = 1;</script>
		<p style="display:none">hidden by style</p>
		<p style="display: none">hidden with space</p>
		<p hidden>hidden attr</p>
		<p aria-hidden="true">aria hidden</p>
		<div style="position:fixed; display:none">pinned</div>
	</body></html>`)

	visible := map[string]bool{}
	walk(doc.Root(), func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "p" || n.Data == "script" || n.Data == "div") {
			key := n.Data
			if v, ok := Attr(n, "style"); ok {
				key += "|" + v
			} else if _, ok := Attr(n, "hidden"); ok {
				key += "|hidden"
			} else if v, ok := Attr(n, "aria-hidden"); ok {
				key += "|aria-" + v
			}
			visible[key] = IsVisible(n)
		}
		return true
	})

	assert.True(t, visible["p"])
	assert.False(t, visible["script"])
	assert.False(t, visible["p|display:none"])
	assert.False(t, visible["p|display: none"])
	assert.False(t, visible["p|hidden"])
	assert.False(t, visible["p|aria-true"])
	// Pinned elements stay visible regardless of other signals.
	assert.True(t, visible["div|position:fixed; display:none"])
}

func TestClassifyTag(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"code block", "<pre>x</pre>", "code"},
		{"inline code", "<p>see <code>x</code></p>", "code"},
		{"link", `<a href="/y">x</a>`, "link"},
		{"anchor without href falls back to own tag", `<p><a name="y">x</a></p>`, "a"},
		{"heading", "<h2>x</h2>", "h2"},
		{"list item", "<ul><li>x</li></ul>", "li"},
		{"table cell", "<table><tr><td>x</td></tr></table>", "td"},
		{"quote", "<blockquote>x</blockquote>", "quote"},
		{"button", "<button>x</button>", "button"},
		{"code inside link wins", `<a href="/y"><code>x</code></a>`, "code"},
		{"plain paragraph falls back to own tag", "<p>x</p>", "p"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, "<html><body>"+tt.html+"</body></html>")

			var textNode *html.Node
			walk(doc.Root(), func(n *html.Node) bool {
				if textNode == nil && n.Type == html.TextNode && strings.Contains(n.Data, "x") {
					textNode = n
				}
				return true
			})
			require.NotNil(t, textNode)
			assert.Equal(t, tt.want, ClassifyTag(textNode))
		})
	}
}
