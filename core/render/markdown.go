// Package render provides output renderers for search reports.
// This file implements the Markdown renderer. Enriched results with a live
// source node additionally get a rich preview: the enclosing DOM block
// converted to Markdown via html-to-markdown.
package render

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/enrich"
)

// MarkdownRenderer writes a search report as a Markdown document.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render formats the report: header, then one section per result with its
// context window and, where available, a Markdown preview of the source
// block.
func (r *MarkdownRenderer) Render(report *core.Report) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Search: %q\n\n", report.Query)
	if report.Metadata.Title != "" {
		fmt.Fprintf(&b, "**Page:** %s  \n", report.Metadata.Title)
	}
	fmt.Fprintf(&b, "**Source:** %s  \n", report.Metadata.URL)
	if len(report.Filters) > 0 {
		names := make([]string, len(report.Filters))
		for i, f := range report.Filters {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, "**Filters:** %s  \n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "**Results:** %d\n\n", len(report.Results))

	for i, res := range report.Results {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, res.Text)
		fmt.Fprintf(&b, "- tag: `%s`, score: %d, line: %d\n", res.Tag, res.Score, res.LineNumber)
		if res.Heading != "" {
			fmt.Fprintf(&b, "- under: %s\n", res.Heading)
		}
		if res.Href != "" {
			fmt.Fprintf(&b, "- href: <%s>\n", res.Href)
		}
		b.WriteString("\n")

		switch {
		case res.Tag == "code" && len(res.DOMContext) > 0:
			b.WriteString("```\n")
			b.WriteString(strings.Join(res.DOMContext, "\n"))
			b.WriteString("\n```\n\n")
		case res.Enriched():
			if preview := blockMarkdown(&res); preview != "" {
				b.WriteString(preview)
				b.WriteString("\n\n")
			} else if len(res.DOMContext) > 0 {
				fmt.Fprintf(&b, "> %s\n\n", strings.Join(res.DOMContext, " "))
			}
		case len(res.Context) > 0:
			fmt.Fprintf(&b, "> %s\n\n", strings.Join(res.Context, " · "))
		}
	}

	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// blockMarkdown converts the result's enclosing DOM block to Markdown.
// Returns "" when the source node is gone or conversion fails; the caller
// falls back to the extracted text context.
func blockMarkdown(res *core.GrepResult) string {
	if res.Ref == nil {
		return ""
	}
	node := res.Ref.Deref()
	if node == nil {
		return ""
	}
	block := enrich.EnclosingBlock(node)
	if block == nil {
		return ""
	}

	var raw strings.Builder
	if err := html.Render(&raw, block); err != nil {
		return ""
	}
	markdown, err := htmltomarkdown.ConvertString(raw.String())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(markdown)
}
