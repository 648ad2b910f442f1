// Package testutil provides test utilities and helpers for dbt-cli-mcp tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/mcp-tools/dbt-cli-mcp/internal/executor"
)

// ProjectOption customizes CreateTempProject.
type ProjectOption func(*projectConfig)

type projectConfig struct {
	name   string
	env    map[string]string
	models []string
}

// WithProjectName sets the name written to dbt_project.yml.
func WithProjectName(name string) ProjectOption {
	return func(c *projectConfig) {
		c.name = name
	}
}

// WithEnv writes a .env file with the given variables.
func WithEnv(env map[string]string) ProjectOption {
	return func(c *projectConfig) {
		c.env = env
	}
}

// WithModels creates an empty models/<name>.sql file per model.
func WithModels(models ...string) ProjectOption {
	return func(c *projectConfig) {
		c.models = append(c.models, models...)
	}
}

// CreateTempProject creates a minimal dbt project in a temp directory for testing.
// Returns the project directory. Cleanup is handled by t.TempDir.
func CreateTempProject(t *testing.T, opts ...ProjectOption) string {
	t.Helper()

	cfg := &projectConfig{name: "jaffle_shop"}
	for _, opt := range opts {
		opt(cfg)
	}

	dir := t.TempDir()
	projectContent := fmt.Sprintf(`name: "%s"
version: "1.0.0"
config-version: 2
profile: "%s"
model-paths: ["models"]
seed-paths: ["seeds"]
`, cfg.name, cfg.name)

	if err := os.WriteFile(filepath.Join(dir, "dbt_project.yml"), []byte(projectContent), 0644); err != nil {
		t.Fatalf("failed to write dbt_project.yml: %v", err)
	}

	modelsDir := filepath.Join(dir, "models")
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		t.Fatalf("failed to create models directory: %v", err)
	}
	for _, model := range cfg.models {
		path := filepath.Join(modelsDir, model+".sql")
		if err := os.WriteFile(path, []byte("select 1 as id\n"), 0644); err != nil {
			t.Fatalf("failed to write model %s: %v", model, err)
		}
	}

	if cfg.env != nil {
		WriteEnvFile(t, dir, cfg.env)
	}

	return dir
}

// WriteEnvFile writes KEY=VALUE lines to dir/.env in sorted key order.
// Returns the file path.
func WriteEnvFile(t *testing.T, dir string, env map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	return path
}

// WriteFixtureFile writes fixtures in the format read by executor.LoadFixtures.
// Returns the file path.
func WriteFixtureFile(t *testing.T, dir string, fixtures ...executor.Fixture) string {
	t.Helper()

	type document struct {
		Fixtures []executor.Fixture `yaml:"fixtures"`
	}
	data, err := yaml.Marshal(document{Fixtures: fixtures})
	if err != nil {
		t.Fatalf("failed to marshal fixtures: %v", err)
	}

	path := filepath.Join(dir, "fixtures.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixtures: %v", err)
	}
	return path
}

// WriteConfigFile writes a JSON configuration file to dir/config.json.
// Returns the file path.
func WriteConfigFile(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config.json: %v", err)
	}
	return path
}
