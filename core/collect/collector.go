// Package collect implements the line collector: one walk of the document
// per structural category, producing ordered tagged lines of visible text.
// Categories: all-text, code, headings, links, images.
package collect

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
)

// Collector produces tagged lines for one document. Base, when set, is used
// to resolve relative link hrefs.
type Collector struct {
	doc  *dom.Document
	base *url.URL
}

// New creates a Collector for the given document. baseURL may be empty;
// relative hrefs are then captured as-is.
func New(doc *dom.Document, baseURL string) *Collector {
	c := &Collector{doc: doc}
	if baseURL != "" {
		if parsed, err := url.Parse(baseURL); err == nil {
			c.base = parsed
		}
	}
	return c
}

// Collect walks the document once for the given category and returns its
// tagged lines in document order. Empty lines are filtered out; every
// returned line has non-empty Text.
func (c *Collector) Collect(category core.Category) []core.TaggedLine {
	switch category {
	case core.CategoryAll:
		return c.collectAllText()
	case core.CategoryCode:
		return c.collectCode()
	case core.CategoryHeadings:
		return c.collectHeadings()
	case core.CategoryLinks:
		return c.collectLinks()
	case core.CategoryImages:
		return c.collectImages()
	default:
		return nil
	}
}

// collectAllText walks every text node in the body in document order.
// Code blocks are emitted as split lines at their document position and
// their subtrees skipped, so block content is not collected twice.
func (c *Collector) collectAllText() []core.TaggedLine {
	var lines []core.TaggedLine
	c.walkVisible(c.doc.Body(), func(n *html.Node) bool {
		if dom.IsCodeElement(n) {
			lines = append(lines, c.splitCodeBlock(n)...)
			return false // subtree handled
		}
		if n.Type == html.TextNode {
			if text := normalizeSpace(n.Data); text != "" {
				lines = append(lines, core.TaggedLine{
					Text:      text,
					LowerText: strings.ToLower(text),
					Tag:       dom.ClassifyTag(n),
					Ref:       c.doc.Ref(n),
				})
			}
		}
		return true
	})
	return lines
}

// collectCode finds every top-most code block and splits it into one line
// per non-empty line break, so multi-line blocks rank independently.
func (c *Collector) collectCode() []core.TaggedLine {
	var lines []core.TaggedLine
	c.walkVisible(c.doc.Body(), func(n *html.Node) bool {
		if dom.IsCodeElement(n) {
			lines = append(lines, c.splitCodeBlock(n)...)
			return false
		}
		return true
	})
	return lines
}

// splitCodeBlock emits one tagged line per non-empty raw line of the block.
// Each line references the enclosing block element, which the enricher uses
// to relocate the line inside the block.
func (c *Collector) splitCodeBlock(block *html.Node) []core.TaggedLine {
	ref := c.doc.Ref(block)
	var lines []core.TaggedLine
	for _, raw := range strings.Split(RawText(block), "\n") {
		text := normalizeSpace(raw)
		if text == "" {
			continue
		}
		lines = append(lines, core.TaggedLine{
			Text:      text,
			LowerText: strings.ToLower(text),
			Tag:       "code",
			Ref:       ref,
		})
	}
	return lines
}

func (c *Collector) collectHeadings() []core.TaggedLine {
	var lines []core.TaggedLine
	c.selection("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if !renderedWithAncestors(n) {
			return
		}
		text := normalizeSpace(s.Text())
		if text == "" {
			return
		}
		lines = append(lines, core.TaggedLine{
			Text:      text,
			LowerText: strings.ToLower(text),
			Tag:       n.Data,
			Ref:       c.doc.Ref(n),
		})
	})
	return lines
}

func (c *Collector) collectLinks() []core.TaggedLine {
	var lines []core.TaggedLine
	c.selection("a[href]").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if !renderedWithAncestors(n) {
			return
		}
		text := normalizeSpace(s.Text())
		if text == "" {
			return
		}
		href, _ := s.Attr("href")
		lines = append(lines, core.TaggedLine{
			Text:      text,
			LowerText: strings.ToLower(text),
			Tag:       "link",
			Href:      c.resolveHref(href),
			Ref:       c.doc.Ref(n),
		})
	})
	return lines
}

// collectImages indexes images by alt text, then title, then the trailing
// filename segment of the source URL. Images with none of the three are
// skipped.
func (c *Collector) collectImages() []core.TaggedLine {
	var lines []core.TaggedLine
	c.selection("img").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if !renderedWithAncestors(n) {
			return
		}
		text := normalizeSpace(s.AttrOr("alt", ""))
		if text == "" {
			text = normalizeSpace(s.AttrOr("title", ""))
		}
		if text == "" {
			text = sourceFilename(s.AttrOr("src", ""))
		}
		if text == "" {
			return
		}
		lines = append(lines, core.TaggedLine{
			Text:      text,
			LowerText: strings.ToLower(text),
			Tag:       "image",
			Ref:       c.doc.Ref(n),
		})
	})
	return lines
}

func (c *Collector) selection(selector string) *goquery.Selection {
	return goquery.NewDocumentFromNode(c.doc.Root()).Find(selector)
}

// walkVisible runs fn over n and its subtree in document order, pruning
// invisible subtrees. fn returning false also prunes.
func (c *Collector) walkVisible(n *html.Node, fn func(*html.Node) bool) {
	if n == nil || !dom.IsVisible(n) {
		return
	}
	if !fn(n) {
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walkVisible(child, fn)
	}
}

// resolveHref resolves a relative href against the page base. Unresolvable
// or non-navigational hrefs are captured as-is.
func (c *Collector) resolveHref(href string) string {
	if c.base == nil || href == "" {
		return href
	}
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	return c.base.ResolveReference(parsed).String()
}

// renderedWithAncestors reports whether n and every ancestor is visible.
// A display:none ancestor removes the layout box of all descendants.
func renderedWithAncestors(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if !dom.IsVisible(cur) {
			return false
		}
	}
	return true
}

// RawText concatenates the text content of a subtree without normalizing,
// preserving line breaks inside preformatted blocks.
func RawText(n *html.Node) string {
	var b strings.Builder
	var visit func(cur *html.Node)
	visit = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
			return
		}
		if cur.Type == html.ElementNode && cur.Data == "br" {
			b.WriteString("\n")
		}
		for child := cur.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return b.String()
}

// normalizeSpace collapses runs of whitespace to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeSpace is the exported form used by the enricher to relocate
// lines by normalized-text equality.
func NormalizeSpace(s string) string {
	return normalizeSpace(s)
}

// sourceFilename returns the trailing path segment of an image source URL,
// without its query string.
func sourceFilename(src string) string {
	if src == "" {
		return ""
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimSuffix(src, "/")
	if i := strings.LastIndex(src, "/"); i >= 0 {
		src = src[i+1:]
	}
	return normalizeSpace(src)
}
