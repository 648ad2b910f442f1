package config

import (
	"fmt"
	"strings"
)

// OutputFormat is how the CLI renders an operation's result.
type OutputFormat string

// Valid output format values
const (
	// OutputFormatText prints the processed result text as-is.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON prints a JSON envelope; structured payloads are embedded.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML prints the same envelope as YAML.
	OutputFormatYAML OutputFormat = "yaml"
	// OutputFormatTable renders list and preview results as a table.
	OutputFormatTable OutputFormat = "table"
)

var validOutputFormats = map[OutputFormat]bool{
	OutputFormatText:  true,
	OutputFormatJSON:  true,
	OutputFormatYAML:  true,
	OutputFormatTable: true,
}

// ValidOutputFormatNames returns the valid format names for display.
func ValidOutputFormatNames() []string {
	return []string{"text", "json", "yaml", "table"}
}

// NormalizeOutputFormat validates and normalizes a format name. Empty
// means text.
func NormalizeOutputFormat(format string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(format)))
	if f == "" {
		return OutputFormatText, nil
	}
	if !validOutputFormats[f] {
		return "", fmt.Errorf("invalid output format %q: valid options are %s",
			format, strings.Join(ValidOutputFormatNames(), ", "))
	}
	return f, nil
}

// IsStructured reports whether the format wraps output in an envelope.
func (f OutputFormat) IsStructured() bool {
	return f == OutputFormatJSON || f == OutputFormatYAML
}

// String returns the string representation of the format.
func (f OutputFormat) String() string {
	return string(f)
}
