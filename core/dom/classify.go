// Visibility check and structural tag classification.
// Both are pure functions of current DOM state.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// nonRenderedElements never produce a layout box.
var nonRenderedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "meta": true, "link": true, "title": true, "base": true,
}

// IsVisible reports whether a node contributes rendered content. The
// document root is always visible; otherwise a node is visible if it has a
// layout box, or is explicitly pinned (fixed/sticky positioning).
func IsVisible(n *html.Node) bool {
	if n == nil {
		return false
	}
	if n.Type == html.DocumentNode {
		return true
	}
	if n.Type != html.ElementNode {
		return true // text and comment nodes inherit their parent's fate
	}
	if nonRenderedElements[n.Data] {
		return false
	}

	style := ""
	if v, ok := Attr(n, "style"); ok {
		style = strings.ToLower(v)
	}

	// Pinned elements stay visible regardless of other signals.
	if strings.Contains(style, "position:fixed") || strings.Contains(style, "position: fixed") ||
		strings.Contains(style, "position:sticky") || strings.Contains(style, "position: sticky") {
		return true
	}

	if _, hidden := Attr(n, "hidden"); hidden {
		return false
	}
	if v, ok := Attr(n, "aria-hidden"); ok && v == "true" {
		return false
	}
	if strings.Contains(style, "display:none") || strings.Contains(style, "display: none") ||
		strings.Contains(style, "visibility:hidden") || strings.Contains(style, "visibility: hidden") {
		return false
	}
	return true
}

// codeElements contain preformatted or inline code.
var codeElements = map[string]bool{
	"pre": true, "code": true, "samp": true, "kbd": true,
}

// headingLevels maps heading elements to their tag.
var headingLevels = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// IsCodeElement reports whether n is a code-bearing element.
func IsCodeElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && codeElements[n.Data]
}

// IsHeadingElement reports whether n is an h1–h6 element.
func IsHeadingElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && headingLevels[n.Data]
}

// ClassifyTag walks ancestors outward from a text node and returns the
// coarse structural tag of the nearest classifiable ancestor. Priority:
// code > link > heading > list item > table cell > quote > label-like.
// Falls back to the nearest element's own tag, or "text".
func ClassifyTag(n *html.Node) string {
	fallback := "text"
	for cur := parentElement(n); cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		switch {
		case codeElements[cur.Data]:
			return "code"
		case cur.Data == "a":
			if href, ok := Attr(cur, "href"); ok && href != "" {
				return "link"
			}
		case headingLevels[cur.Data]:
			return cur.Data
		case cur.Data == "li":
			return "li"
		case cur.Data == "td" || cur.Data == "th":
			return cur.Data
		case cur.Data == "blockquote" || cur.Data == "q":
			return "quote"
		case cur.Data == "label" || cur.Data == "button" || cur.Data == "figcaption" || cur.Data == "caption":
			return cur.Data
		}
		if fallback == "text" && cur.Data != "body" && cur.Data != "html" {
			fallback = cur.Data
		}
	}
	return fallback
}

// parentElement returns n itself if it is an element, else its nearest
// element ancestor.
func parentElement(n *html.Node) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			return cur
		}
	}
	return nil
}
