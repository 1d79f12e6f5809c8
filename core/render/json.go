// Package render — JSON renderer.
// Marshals the full report, including per-result context and any enriched
// DOM-derived fields, for machine consumption.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/pagegrep/core"
)

// JSONRenderer produces structured JSON output from a search report.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the report with indentation.
func (r *JSONRenderer) Render(report *core.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
