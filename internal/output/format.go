// Package output provides the structured output formats for report results.
//
// Reports print a fixed text layout by default. The yaml and json formats
// emit the rows a report was built from, for piping into other tools.
package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is the default human-readable report layout
	FormatText Format = "text"

	// FormatYAML emits report results as YAML
	FormatYAML Format = "yaml"

	// FormatJSON emits report results as JSON
	FormatJSON Format = "json"
)

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatText

// ParseFormat parses a format string into a Format value.
// Accepts: "text", "yaml", "json" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !ValidateFormat(f) {
		return "", fmt.Errorf("invalid format: %q (expected text, yaml, or json)", s)
	}
	return f, nil
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsStructured reports whether the format emits data rather than the text layout.
func (f Format) IsStructured() bool {
	return f == FormatYAML || f == FormatJSON
}

// ValidateFormat checks if a format value is valid.
func ValidateFormat(f Format) bool {
	switch f {
	case FormatText, FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}
