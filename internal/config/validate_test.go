// Package config_test tests JSON syntax validation and value constraints.
// Related: internal/config/validate.go
// Tags: config, validation, json
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONSyntax(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content    string
		wantErr    bool
		wantLine   int
		wantColumn int
	}{
		"valid":        {content: `{"dbt_path": "dbt"}`},
		"empty":        {content: ""},
		"missing colon": {
			content:  "{\n  \"dbt_path\" \"dbt\"\n}",
			wantErr:  true,
			wantLine: 2,
		},
		"trailing comma": {
			content:  "{\"a\": 1,}",
			wantErr:  true,
			wantLine: 1,
		},
		"not an object": {
			content: `["dbt"]`,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			err := ValidateJSONSyntax(path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, path, verr.FilePath)
			if tt.wantLine > 0 {
				assert.Equal(t, tt.wantLine, verr.Line)
				assert.Positive(t, verr.Column)
			}
		})
	}
}

func TestValidateJSONSyntax_MissingFile(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateJSONSyntax(filepath.Join(t.TempDir(), "nope.json")))
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  ValidationError
		want string
	}{
		"position": {err: ValidationError{FilePath: "c.json", Line: 3, Column: 7, Message: "bad"}, want: "c.json:3:7: bad"},
		"field":    {err: ValidationError{FilePath: "c.json", Field: "timeout", Message: "too big"}, want: "c.json: field 'timeout': too big"},
		"no path":  {err: ValidationError{Message: "oops"}, want: "config: oops"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestValidateConfigValues(t *testing.T) {
	t.Parallel()

	valid := func() *Configuration {
		return &Configuration{
			DBTPath: "dbt", ProjectDir: ".", LogLevel: "INFO",
			Timeout: 10, KillGrace: 1, OutputFormat: "text",
		}
	}

	tests := map[string]struct {
		mutate    func(*Configuration)
		wantField string
	}{
		"valid":             {mutate: func(*Configuration) {}},
		"missing dbt path":  {mutate: func(c *Configuration) { c.DBTPath = "" }, wantField: "dbt_path"},
		"negative grace":    {mutate: func(c *Configuration) { c.KillGrace = -1 }, wantField: "kill_grace"},
		"strict operations": {mutate: func(c *Configuration) { c.StrictOperations = []string{"test", "nope"} }, wantField: "strict_operations"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfigValues(cfg, "c.json")
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}
