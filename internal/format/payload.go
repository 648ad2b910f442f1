// Package format turns captured tool output into caller-facing text.
//
// Output is first parsed once into a Payload. Formatters are pure functions
// over that Payload; none of them ever fails. When output cannot be reshaped
// the raw text is returned and a FormattingDegraded warning is logged.
package format

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
)

// timestampPrefix matches the "HH:MM:SS " prefix the hosted CLI puts on
// every line it streams.
var timestampPrefix = regexp.MustCompile(`^\d\d:\d\d:\d\d\s+`)

// Payload is tool output, either parsed into a structured value or kept as
// raw text.
type Payload struct {
	// Value is the decoded mapping or sequence. Nil when Structured is false.
	Value any

	// Text is the raw output the payload was parsed from.
	Text string

	// Structured reports whether Value holds parsed data.
	Structured bool
}

// Raw wraps text that should never be parsed.
func Raw(text string) Payload {
	return Payload{Text: text}
}

// ParsePayload parses standard output. A single JSON mapping or sequence is
// decoded as-is. Otherwise, if every non-empty line (after an optional
// timestamp prefix) is a JSON mapping or sequence, the lines become a
// sequence. Anything else is kept as raw text. Numbers keep their exact
// textual form.
func ParsePayload(text string) Payload {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Raw(text)
	}

	if v, ok := decodeComposite(trimmed); ok {
		return Payload{Value: v, Text: text, Structured: true}
	}

	var items []any
	for _, line := range strings.Split(trimmed, "\n") {
		line = stripTimestamp(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		v, ok := decodeComposite(line)
		if !ok {
			return Raw(text)
		}
		items = append(items, v)
	}
	return Payload{Value: items, Text: text, Structured: true}
}

// decodeComposite decodes s as exactly one JSON mapping or sequence.
func decodeComposite(s string) (any, bool) {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

func stripTimestamp(line string) string {
	return timestampPrefix.ReplaceAllString(line, "")
}

// marshal encodes v without HTML escaping. Indent is empty for compact output.
func marshal(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
