package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/mcp-tools/dbt-cli-mcp/internal/config"
	"github.com/mcp-tools/dbt-cli-mcp/internal/format"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/result"
)

// Render writes resp to w in the requested format. Output is written even
// for failures so scripted callers always see the diagnostic text. res and
// listMode are only consulted by the table format; res may be nil.
func Render(w io.Writer, f config.OutputFormat, res *result.Result, resp result.Response, listMode string) error {
	switch f {
	case config.OutputFormatJSON:
		return renderJSON(w, resp.Text)
	case config.OutputFormatYAML:
		return renderYAML(w, resp.Text)
	case config.OutputFormatTable:
		if res != nil && res.Success && renderTable(w, res, listMode) {
			return nil
		}
		return renderText(w, resp.Text)
	default:
		return renderText(w, resp.Text)
	}
}

func renderText(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}

// isComposite reports whether s is a complete JSON object or array.
func isComposite(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return false
	}
	return json.Valid([]byte(s))
}

// renderJSON re-indents JSON text in place so key order is kept; any other
// text is wrapped as {"output": text}.
func renderJSON(w io.Writer, s string) error {
	var buf bytes.Buffer
	if isComposite(s) {
		if err := json.Indent(&buf, []byte(strings.TrimSpace(s)), "", "  "); err != nil {
			return fmt.Errorf("indenting output: %w", err)
		}
	} else {
		data, err := json.MarshalIndent(map[string]string{"output": s}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		buf.Write(data)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// renderYAML converts JSON text through a yaml.Node so key order is kept;
// any other text is wrapped under an output key.
func renderYAML(w io.Writer, s string) error {
	var node yaml.Node
	if !isComposite(s) || yaml.Unmarshal([]byte(strings.TrimSpace(s)), &node) != nil {
		node = yaml.Node{}
		if err := node.Encode(map[string]string{"output": s}); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles JSON input decodes with.
// The encoder re-quotes strings that would otherwise change type.
func blockStyle(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode || n.Style != yaml.LiteralStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// renderTable draws list and preview results as a table. It reports false
// when the result has no tabular shape. Listings are drawn only in json
// mode; name, path and selector output is already final and is never
// re-parsed.
func renderTable(w io.Writer, res *result.Result, listMode string) bool {
	switch res.Operation {
	case invocation.List:
		if mode := strings.ToLower(strings.TrimSpace(listMode)); mode != "" && mode != format.ModeJSON {
			return false
		}
		records := format.ParseResources(res.Payload)
		if len(records) == 0 {
			return false
		}
		t := newTable(w)
		t.AppendHeader(header("NAME", "RESOURCE TYPE", "PATH"))
		for _, r := range records {
			t.AppendRow(table.Row{r.Name, r.Kind, r.Path})
		}
		t.Render()
		return true
	case invocation.Show:
		tbl, ok := format.ParseTable(res.Stdout)
		if !ok {
			return false
		}
		t := newTable(w)
		t.AppendHeader(header(tbl.Columns...))
		for _, row := range tbl.Rows {
			cells := make(table.Row, len(row.Values))
			for i, v := range row.Values {
				cells[i] = v
			}
			t.AppendRow(cells)
		}
		t.Render()
		return true
	default:
		return false
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, n := range names {
		row[i] = text.FgHiCyan.Sprint(n)
	}
	return row
}
