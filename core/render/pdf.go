// Package render — PDF renderer.
// Produces a printable search report using gofpdf: page header, then one
// entry per result with its context window. Code context is set in
// monospace on a shaded background; prose context in the body font.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/pagegrep/core"
)

// PDFRenderer renders a search report as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the report into PDF bytes.
func (r *PDFRenderer) Render(report *core.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Report title.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, fmt.Sprintf("Search: %q", report.Query), "", "L", false)
	pdf.Ln(2)

	// Source line.
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	source := report.Metadata.URL
	if report.Metadata.Title != "" {
		source = report.Metadata.Title + " — " + source
	}
	pdf.MultiCell(0, 5, "Source: "+source, "", "L", false)
	pdf.MultiCell(0, 5, fmt.Sprintf("%d results", len(report.Results)), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	for i, res := range report.Results {
		renderResult(pdf, i+1, &res)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderResult writes one result entry: matched line, attributes, context.
func renderResult(pdf *gofpdf.Fpdf, ordinal int, res *core.GrepResult) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", ordinal, res.Text), "", "L", false)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(100, 100, 100)
	attrs := fmt.Sprintf("tag: %s   score: %d   line: %d", res.Tag, res.Score, res.LineNumber)
	if res.Heading != "" {
		attrs += "   under: " + res.Heading
	}
	pdf.MultiCell(0, 4, attrs, "", "L", false)
	if res.Href != "" {
		pdf.MultiCell(0, 4, res.Href, "", "L", false)
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)

	context := res.DOMContext
	if len(context) == 0 {
		context = res.Context
	}
	if res.Tag == "code" {
		pdf.SetFont("Courier", "", 8)
		pdf.SetFillColor(245, 245, 245)
		for _, line := range context {
			pdf.MultiCell(0, 4, line, "", "L", true)
		}
	} else {
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4.5, strings.Join(context, " "), "", "L", false)
	}
	pdf.Ln(4)
}
