package format

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

// List rendering modes, matching the tool's --output values.
const (
	ModeJSON     = "json"
	ModeName     = "name"
	ModePath     = "path"
	ModeSelector = "selector"
)

// resourceKinds are the first segments that identify a kind in a unique id
// or selector string.
var resourceKinds = map[string]bool{
	"model": true, "test": true, "seed": true, "snapshot": true, "source": true,
	"analysis": true, "exposure": true, "metric": true, "semantic_model": true,
	"saved_query": true, "unit_test": true, "function": true, "macro": true,
	"operation": true, "group": true,
}

// logMessages are status lines the hosted CLI interleaves with listing output.
var logMessages = []string{
	"Sending project", "Created invocation", "Waiting for", "Streaming",
	"Running dbt", "Invocation has finished", "Running with dbt=",
	"Registered adapter:", "Found", "Unable to do partial parsing",
	"Starting", "Completed",
}

// ResourceRecord is one listed resource.
type ResourceRecord struct {
	Name string `json:"name"`
	Kind string `json:"resource_type"`
	Path string `json:"path"`
}

// List returns the list formatter for mode. In json mode output is parsed
// into records and pretty-printed; any other mode returns the raw text,
// since the tool already emits that shape and names may contain the
// delimiters a re-parse would split on.
func List(mode string) Formatter {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeJSON
	}
	return func(p Payload) string {
		if mode != ModeJSON {
			return p.Text
		}
		records := ParseResources(p)
		if len(records) == 0 {
			if strings.TrimSpace(p.Text) != "" {
				degraded("list", "no resources recognized in output")
			}
			return "[]"
		}
		out, err := marshal(records, "  ")
		if err != nil {
			degraded("list", err.Error())
			return p.Text
		}
		return out
	}
}

// ParseResources normalizes every known listing shape into records, in the
// order the tool emitted them. Unrecognizable elements are skipped.
func ParseResources(p Payload) []ResourceRecord {
	elements := listElements(p)
	records := make([]ResourceRecord, 0, len(elements))
	for _, el := range elements {
		var (
			rec ResourceRecord
			ok  bool
		)
		switch v := el.(type) {
		case map[string]any:
			rec, ok = fromObject(v)
		case string:
			rec, ok = fromString(v)
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records
}

// listElements flattens a payload into a sequence whose elements are either
// objects or bare strings.
func listElements(p Payload) []any {
	if !p.Structured {
		return textElements(p.Text)
	}
	switch v := p.Value.(type) {
	case []any:
		return v
	case map[string]any:
		if nodes, ok := v["nodes"].(map[string]any); ok {
			return nodeElements(nodes)
		}
		return []any{v}
	default:
		return nil
	}
}

func textElements(text string) []any {
	var elements []any
	for _, line := range strings.Split(text, "\n") {
		line = stripTimestamp(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if obj, ok := decodeObject(line); ok {
			elements = append(elements, obj)
			continue
		}
		elements = append(elements, line)
	}
	return elements
}

// nodeElements turns a {"nodes": {unique_id: details}} mapping into objects.
// Map iteration order is random, so the result is ordered by unique id.
func nodeElements(nodes map[string]any) []any {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	elements := make([]any, 0, len(ids))
	for _, id := range ids {
		obj := map[string]any{"unique_id": id}
		if details, ok := nodes[id].(map[string]any); ok {
			for k, v := range details {
				obj[k] = v
			}
		}
		if _, ok := obj["name"]; !ok {
			obj["name"] = lastSegment(id)
		}
		elements = append(elements, obj)
	}
	return elements
}

func fromObject(obj map[string]any) (ResourceRecord, bool) {
	name := stringField(obj, "name")
	if name == "" {
		return ResourceRecord{}, false
	}
	if isLogLine(name) {
		if inner, ok := unwrapEnvelope(name); ok {
			return fromObject(inner)
		}
		logging.For("format").Debug().Str("line", truncate(name, 40)).Msg("skipping log line")
		return ResourceRecord{}, false
	}

	rec := ResourceRecord{Name: name, Kind: stringField(obj, "resource_type")}
	switch {
	case stringField(obj, "path") != "":
		rec.Path = stringField(obj, "path")
	case stringField(obj, "unique_id") != "":
		kind, rest := splitKind(stringField(obj, "unique_id"))
		rec.Path = rest
		if rec.Kind == "" {
			rec.Kind = kind
		}
	case len(stringSlice(obj["fqn"])) > 0:
		rec.Path = strings.Join(stringSlice(obj["fqn"]), ".")
	case stringField(obj, "original_file_path") != "":
		rec.Path = stringField(obj, "original_file_path")
	default:
		rec.Path = name
	}
	return rec, true
}

func fromString(s string) (ResourceRecord, bool) {
	if isLogLine(s) {
		return ResourceRecord{}, false
	}
	kind, rest := splitKind(s)
	return ResourceRecord{Name: lastSegment(rest), Kind: kind, Path: rest}, true
}

// splitKind separates a leading "kind." or "kind:" segment when it names a
// known resource kind.
func splitKind(s string) (kind, rest string) {
	if i := strings.IndexAny(s, ".:"); i > 0 && resourceKinds[s[:i]] && i < len(s)-1 {
		return s[:i], s[i+1:]
	}
	return "", s
}

func lastSegment(s string) string {
	if i := strings.LastIndexAny(s, ".:/"); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return s
}

// isLogLine reports whether s looks like log chatter rather than a resource.
func isLogLine(s string) bool {
	if strings.Contains(s, "\x1b[") || timestampPrefix.MatchString(s) {
		return true
	}
	for _, msg := range logMessages {
		if strings.Contains(s, msg) {
			return true
		}
	}
	return false
}

// unwrapEnvelope extracts the resource object from a "HH:MM:SS {json}" line.
func unwrapEnvelope(s string) (map[string]any, bool) {
	if !timestampPrefix.MatchString(s) {
		return nil, false
	}
	obj, ok := decodeObject(stripTimestamp(s))
	if !ok || stringField(obj, "name") == "" || stringField(obj, "resource_type") == "" {
		return nil, false
	}
	return obj, true
}

func decodeObject(s string) (map[string]any, bool) {
	v, ok := decodeComposite(s)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
