// Package envfile loads KEY=VALUE environment files and overlays them onto a
// process environment.
package envfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Warning describes a line that was skipped.
type Warning struct {
	Line   int
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

// Load reads path and returns its variables. A missing file yields an empty
// map and no error. Malformed lines are skipped and reported as warnings.
func Load(path string) (map[string]string, []Warning, error) {
	if path == "" {
		return map[string]string{}, nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.For("envfile").Debug().Str("path", path).Msg("environment file not found")
			return map[string]string{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading environment file %s: %w", path, err)
	}

	vars, warnings := Parse(data)
	log := logging.For("envfile")
	for _, w := range warnings {
		log.Warn().Str("path", path).Int("line", w.Line).Msg(w.Reason)
	}
	log.Debug().Str("path", path).Int("vars", len(vars)).Msg("loaded environment file")
	return vars, warnings, nil
}

// Parse parses env-file content one line at a time so that a single
// malformed line never discards the rest of the file.
func Parse(data []byte) (map[string]string, []Warning) {
	vars := make(map[string]string)
	var warnings []Warning

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "=") {
			warnings = append(warnings, Warning{Line: lineNo, Reason: "missing '=' separator"})
			continue
		}

		parsed, err := godotenv.Unmarshal(line)
		if err != nil {
			warnings = append(warnings, Warning{Line: lineNo, Reason: err.Error()})
			continue
		}
		if len(parsed) == 0 {
			warnings = append(warnings, Warning{Line: lineNo, Reason: "no variable found"})
			continue
		}
		for k, v := range parsed {
			if !keyPattern.MatchString(k) {
				warnings = append(warnings, Warning{Line: lineNo, Reason: fmt.Sprintf("invalid variable name %q", k)})
				continue
			}
			vars[k] = v
		}
	}
	return vars, warnings
}

// Overlay returns base (KEY=VALUE entries) with overlay applied on top.
// Overlay values win on collision. Output order is stable: base order first,
// then new keys sorted.
func Overlay(base []string, overlay map[string]string) []string {
	out := make([]string, 0, len(base)+len(overlay))
	seen := make(map[string]bool, len(overlay))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if v, ok := overlay[k]; ok {
			out = append(out, k+"="+v)
			seen[k] = true
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overlay[k])
	}
	return out
}

// Defaults sets each key in defaults only when env does not define it.
func Defaults(env []string, defaults map[string]string) []string {
	missing := make(map[string]string)
	for k, v := range defaults {
		if _, ok := Lookup(env, k); !ok && v != "" {
			missing[k] = v
		}
	}
	if len(missing) == 0 {
		return env
	}
	return Overlay(env, missing)
}

// Lookup returns the value of key in env.
func Lookup(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, _ := strings.Cut(env[i], "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}
