// Package dom wraps the parsed HTML tree behind a session-scoped Document.
// It provides the visibility check and structural tag classifier used during
// line collection, plus non-owning node references that expire when the
// document is reloaded or the node is detached.
package dom

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Document owns one parsed HTML tree. Sources may swap in a re-parsed root
// (SetRoot) when the backing content changes; every NodeRef handed out
// against the old root expires at that moment.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

// Parse builds a Document from raw HTML.
func Parse(rawHTML string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// FromNode wraps an already-parsed tree. Used by tests that mutate the tree
// directly to simulate a live document.
func FromNode(root *html.Node) *Document {
	return &Document{root: root}
}

// Root returns the current document root.
func (d *Document) Root() *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// SetRoot swaps in a freshly parsed tree. All refs against the previous
// root expire.
func (d *Document) SetRoot(root *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root = root
}

// Body returns the <body> element, or the root if none exists.
func (d *Document) Body() *html.Node {
	root := d.Root()
	if body := findElement(root, "body"); body != nil {
		return body
	}
	return root
}

// Title returns the text of the document's <title>, if any.
func (d *Document) Title() string {
	title := findElement(d.Root(), "title")
	if title == nil {
		return ""
	}
	var b strings.Builder
	for c := title.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// ElementCount counts element nodes in the document. The CLI uses this for
// its oversized-document guard before a session is started.
func (d *Document) ElementCount() int {
	count := 0
	walk(d.Root(), func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			count++
		}
		return true
	})
	return count
}

// TextBytes totals the raw text content length, for the same guard.
func (d *Document) TextBytes() int {
	total := 0
	walk(d.Root(), func(n *html.Node) bool {
		if n.Type == html.TextNode {
			total += len(n.Data)
		}
		return true
	})
	return total
}

// Ref returns a non-owning reference to n. Deref yields nil once n is no
// longer attached to this document's current root, so stale lines are
// detected without keeping any liveness bookkeeping per node.
func (d *Document) Ref(n *html.Node) *NodeRef {
	return &NodeRef{doc: d, node: n}
}

// NodeRef is the dom implementation of core.NodeRef: a relation-plus-lookup
// edge, never an ownership edge.
type NodeRef struct {
	doc  *Document
	node *html.Node
}

// Deref returns the referenced node if it is still attached to the
// document's current root, nil otherwise.
func (r *NodeRef) Deref() *html.Node {
	if r == nil || r.node == nil {
		return nil
	}
	root := r.doc.Root()
	for n := r.node; n != nil; n = n.Parent {
		if n == root {
			return r.node
		}
	}
	return nil
}

// walk runs fn over n and its subtree in document order. Returning false
// from fn prunes the subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// findElement returns the first element with the given tag name, in
// document order.
func findElement(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(n, func(cur *html.Node) bool {
		if found != nil {
			return false
		}
		if cur.Type == html.ElementNode && cur.Data == tag {
			found = cur
			return false
		}
		return true
	})
	return found
}

// Attr returns the value of the named attribute on n, if present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
