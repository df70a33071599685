package lint

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format represents the output format for reporting violations.
type Format int

const (
	// FormatText outputs one human-readable line per violation.
	FormatText Format = iota
	// FormatJSON outputs a JSON document with all violations.
	FormatJSON
)

// Reporter formats and writes violations.
type Reporter struct {
	writer io.Writer
	format Format
}

// NewReporter creates a Reporter writing to w in the given format.
func NewReporter(w io.Writer, format Format) *Reporter {
	return &Reporter{writer: w, format: format}
}

// Report writes the violations. A nil or empty slice writes nothing in text
// mode and an empty list in JSON mode.
func (r *Reporter) Report(violations []Violation) error {
	switch r.format {
	case FormatText:
		for _, v := range violations {
			if _, err := fmt.Fprintln(r.writer, v.String()); err != nil {
				return fmt.Errorf("write text output: %w", err)
			}
		}
		return nil
	case FormatJSON:
		out := struct {
			Violations []Violation `json:"violations"`
		}{Violations: violations}
		if out.Violations == nil {
			out.Violations = []Violation{}
		}
		enc := json.NewEncoder(r.writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode JSON output: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %d", r.format)
	}
}
