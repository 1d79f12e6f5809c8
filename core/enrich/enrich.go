// Package enrich derives DOM-aware surrounding context for a single
// result, lazily, the first time it becomes the active selection: sibling
// code lines for code blocks, nearby sentences for prose, the nearest
// heading above the match, and the enclosing link href.
package enrich

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/collect"
	"github.com/gaurav-prasanna/pagegrep/core/dom"
)

const (
	codeRadius        = 5   // code lines either side of the match
	codeFallbackLines = 11  // block head shown when the line can't be relocated
	shortBlockChars   = 200 // prose blocks at most this long are returned whole
	sentenceRadius    = 2   // sentences either side of the matching one
	proseFallbackLen  = 300 // leading characters shown when no sentence matches
)

// Enrich fills a result's DOM-derived fields in place. Idempotent: the
// first successful call wins, later calls no-op. A stale or missing source
// reference is an expected condition; the result keeps its flat context
// and the DOM fields stay empty.
func Enrich(r *core.GrepResult) {
	if r == nil || r.Enriched() || r.Ref == nil {
		return
	}
	node := r.Ref.Deref()
	if node == nil {
		return // document changed underneath us; flat context remains
	}

	if r.Tag == "code" {
		r.DOMContext = codeContext(node, r.Text)
	} else {
		r.DOMContext = blockContext(node, r.Text)
	}
	if r.Heading == "" {
		r.Heading = nearestHeading(node)
	}
	if r.Tag == "link" && r.Href == "" {
		r.Href = enclosingHref(node)
	}
}

// codeContext returns a window of sibling lines from the enclosing code
// block, ±codeRadius around the matched line. Tabs are expanded to two
// spaces for display consistency. If the exact line can no longer be
// relocated (the document changed), the block's first codeFallbackLines
// lines are returned instead.
func codeContext(node *html.Node, matchText string) []string {
	block := enclosingCodeBlock(node)
	if block == nil {
		block = node
	}

	raw := strings.Split(collect.RawText(block), "\n")
	display := make([]string, len(raw))
	matchIdx := -1
	for i, line := range raw {
		display[i] = strings.ReplaceAll(line, "\t", "  ")
		if matchIdx < 0 && collect.NormalizeSpace(line) == matchText {
			matchIdx = i
		}
	}

	if matchIdx < 0 {
		if len(display) > codeFallbackLines {
			display = display[:codeFallbackLines]
		}
		return nonNil(display)
	}

	start := matchIdx - codeRadius
	if start < 0 {
		start = 0
	}
	end := matchIdx + codeRadius
	if end > len(display)-1 {
		end = len(display) - 1
	}
	return nonNil(display[start : end+1])
}

// blockContext returns prose context: the whole enclosing block when it is
// short, otherwise a sentence window around the match, otherwise the
// block's leading characters.
func blockContext(node *html.Node, matchText string) []string {
	block := EnclosingBlock(node)
	if block == nil {
		block = node
	}

	text := collect.NormalizeSpace(collect.RawText(block))
	if len(text) <= shortBlockChars {
		return nonNil([]string{text})
	}

	sentences := splitSentences(text)
	matchLower := strings.ToLower(matchText)
	for i, sentence := range sentences {
		if !strings.Contains(strings.ToLower(sentence), matchLower) {
			continue
		}
		start := i - sentenceRadius
		if start < 0 {
			start = 0
		}
		end := i + sentenceRadius
		if end > len(sentences)-1 {
			end = len(sentences) - 1
		}
		return nonNil(sentences[start : end+1])
	}

	if len(text) > proseFallbackLen {
		text = text[:proseFallbackLen]
	}
	return nonNil([]string{text})
}

// blockContainers are the conventional prose block elements the enricher
// walks up to.
var blockContainers = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"aside": true, "li": true, "td": true, "th": true, "blockquote": true,
	"figcaption": true, "caption": true, "dd": true, "dt": true, "pre": true,
}

// EnclosingBlock finds the nearest conventional block container or heading
// above node. Renderers reuse it to serialize a rich preview of the block.
func EnclosingBlock(node *html.Node) *html.Node {
	for cur := node; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if blockContainers[cur.Data] || dom.IsHeadingElement(cur) {
			return cur
		}
		if cur.Data == "body" {
			return nil
		}
	}
	return nil
}

// enclosingCodeBlock finds the outermost code element containing node.
// Code lines reference their block directly, but all-text matches may sit
// on a text node inside one.
func enclosingCodeBlock(node *html.Node) *html.Node {
	var block *html.Node
	for cur := node; cur != nil; cur = cur.Parent {
		if dom.IsCodeElement(cur) {
			block = cur
		}
	}
	return block
}

// nearestHeading finds the closest heading above node: enclosing headings
// win, then preceding siblings are scanned outward, taking the deepest
// (document-order last) heading inside each.
func nearestHeading(node *html.Node) string {
	for cur := node; cur != nil; cur = cur.Parent {
		if dom.IsHeadingElement(cur) {
			return collect.NormalizeSpace(collect.RawText(cur))
		}
	}
	for cur := node; cur != nil; cur = cur.Parent {
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if h := lastHeading(sib); h != nil {
				return collect.NormalizeSpace(collect.RawText(h))
			}
		}
	}
	return ""
}

// lastHeading returns the document-order last heading within n's subtree,
// n included.
func lastHeading(n *html.Node) *html.Node {
	var last *html.Node
	var visit func(cur *html.Node)
	visit = func(cur *html.Node) {
		if dom.IsHeadingElement(cur) {
			last = cur
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return last
}

// enclosingHref returns the href of the nearest enclosing link.
func enclosingHref(node *html.Node) string {
	for cur := node; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && cur.Data == "a" {
			if href, ok := dom.Attr(cur, "href"); ok {
				return href
			}
		}
	}
	return ""
}

// splitSentences breaks normalized prose on sentence boundaries. A boundary
// is a run of . ! ? followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' && text[i] != '!' && text[i] != '?' {
			continue
		}
		// Consume the full punctuation run.
		end := i
		for end+1 < len(text) && (text[end+1] == '.' || text[end+1] == '!' || text[end+1] == '?') {
			end++
		}
		if end+1 < len(text) && text[end+1] != ' ' {
			i = end
			continue
		}
		sentence := strings.TrimSpace(text[start : end+1])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = end + 1
		i = end
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// nonNil marks enrichment complete even when the derived window is empty,
// so Enrich stays idempotent.
func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}
