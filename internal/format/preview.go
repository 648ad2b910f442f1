package format

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Table is preview output reshaped into rows keyed by column header.
type Table struct {
	Columns []string
	Rows    []Row
}

// Row is one table row. It marshals as a JSON object whose keys keep
// column order.
type Row struct {
	Columns []string
	Values  []string
}

// Get returns the value in column name.
func (r Row) Get(name string) (string, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return "", false
}

// MarshalJSON implements json.Marshaler.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Preview passes structured payloads through as compact JSON and reshapes
// delimited table text into a JSON sequence of row objects. Text that is not
// a recognizable table is returned unchanged.
func Preview(p Payload) string {
	if p.Structured {
		return Default(p)
	}
	table, ok := ParseTable(p.Text)
	if !ok {
		if strings.TrimSpace(p.Text) != "" {
			degraded("preview", "output is not a delimited table")
		}
		return p.Text
	}
	out, err := marshal(table.Rows, "")
	if err != nil {
		degraded("preview", err.Error())
		return p.Text
	}
	return out
}

// ParseTable finds the first header line that is followed by a separator
// line and collects the rows below it. Rows whose cell count differs from
// the header are skipped. ok is false unless at least one row was found.
func ParseTable(text string) (Table, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := 0; i+1 < len(lines); i++ {
		if !strings.Contains(lines[i], "|") || !isSeparator(lines[i+1]) {
			continue
		}
		columns := splitCells(lines[i])
		if len(columns) == 0 {
			continue
		}
		table := Table{Columns: columns}
		for _, line := range lines[i+2:] {
			if !strings.Contains(line, "|") || isSeparator(line) {
				continue
			}
			cells := splitCells(line)
			if len(cells) != len(columns) {
				continue
			}
			table.Rows = append(table.Rows, Row{Columns: columns, Values: cells})
		}
		return table, len(table.Rows) > 0
	}
	return Table{}, false
}

func isSeparator(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "-") {
		return false
	}
	return strings.Trim(line, "|-+: ") == ""
}

// splitCells splits a "| a | b |" line, dropping the empty cells produced by
// outer borders but keeping empty inner cells.
func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
