// Package config loads dbt-cli-mcp configuration.
//
// Values are layered, lowest priority first: built-in defaults, the JSON
// config file, environment variables, then explicit overrides (CLI flags).
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
)

// Configuration is the process-wide configuration. It is read-only after
// load; the executable path is the only value that may change at runtime,
// through Runtime.
type Configuration struct {
	DBTPath            string   `koanf:"dbt_path" json:"dbt_path" yaml:"dbt_path" validate:"required"`
	ProjectDir         string   `koanf:"project_dir" json:"project_dir" yaml:"project_dir" validate:"required"`
	EnvFile            string   `koanf:"env_file" json:"env_file" yaml:"env_file"`
	LogLevel           string   `koanf:"log_level" json:"log_level" yaml:"log_level" validate:"oneof=TRACE DEBUG INFO WARN WARNING ERROR CRITICAL"`
	Timeout            int      `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"min=1,max=86400"`
	KillGrace          int      `koanf:"kill_grace" json:"kill_grace" yaml:"kill_grace" validate:"min=0,max=300"`
	IncludeDiagnostics bool     `koanf:"include_diagnostics" json:"include_diagnostics" yaml:"include_diagnostics"`
	StrictOperations   []string `koanf:"strict_operations" json:"strict_operations" yaml:"strict_operations"`
	MockFixtures       string   `koanf:"mock_fixtures" json:"mock_fixtures" yaml:"mock_fixtures"`
	OutputFormat       string   `koanf:"output_format" json:"output_format" yaml:"output_format" validate:"oneof=text json yaml table"`
}

// TimeoutDuration returns Timeout as a duration.
func (c *Configuration) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// KillGraceDuration returns KillGrace as a duration.
func (c *Configuration) KillGraceDuration() time.Duration {
	return time.Duration(c.KillGrace) * time.Second
}

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"DBT_PATH":                    "dbt_path",
	"DBT_PROJECT_DIR":             "project_dir",
	"ENV_FILE":                    "env_file",
	"LOG_LEVEL":                   "log_level",
	"DBT_MCP_TIMEOUT":             "timeout",
	"DBT_MCP_KILL_GRACE":          "kill_grace",
	"DBT_MCP_INCLUDE_DIAGNOSTICS": "include_diagnostics",
	"DBT_MCP_STRICT_OPERATIONS":   "strict_operations",
	"DBT_MCP_MOCK_FIXTURES":       "mock_fixtures",
	"DBT_MCP_OUTPUT_FORMAT":       "output_format",
}

// LoadOptions configures Load behavior.
type LoadOptions struct {
	// ConfigPath is the JSON config file. Empty means DefaultConfigPath.
	// A missing file is not an error.
	ConfigPath string

	// Overrides are applied last, keyed by configuration key.
	Overrides map[string]any
}

// Load loads configuration from path, the environment and defaults.
func Load(path string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ConfigPath: path})
}

// LoadWithOptions loads configuration with explicit overrides.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, apperrors.NewConfigError("applying defaults", err)
		}
	}

	path := opts.ConfigPath
	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, apperrors.NewConfigError("failed to load environment", err)
	}

	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("applying override %s", key), err)
		}
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to unmarshal config", err)
	}
	normalize(&cfg)

	if err := ValidateConfigValues(&cfg, path); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err,
			fmt.Sprintf("check %s or the DBT_*/DBT_MCP_* environment variables", displayPath(path)))
	}
	return &cfg, nil
}

// loadFile merges the JSON file at path into k. Missing and empty files are
// skipped.
func loadFile(k *koanf.Koanf, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.NewConfigError("failed to read config file", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := ValidateJSONSyntaxFromBytes(data, path); err != nil {
		return apperrors.NewConfigError("invalid config file", err,
			"fix the JSON syntax at the reported position", "or remove the file to use defaults")
	}
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return apperrors.NewConfigError("failed to load config file", err)
	}
	return nil
}

// envTransform maps a known environment variable to its key and value.
// Unknown and empty variables return an empty key and are skipped.
func envTransform(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}
	if key == "strict_operations" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalize(cfg *Configuration) {
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.DBTPath = expandHomePath(strings.TrimSpace(cfg.DBTPath))
	cfg.ProjectDir = expandHomePath(strings.TrimSpace(cfg.ProjectDir))
	cfg.MockFixtures = expandHomePath(strings.TrimSpace(cfg.MockFixtures))
	for i, op := range cfg.StrictOperations {
		cfg.StrictOperations[i] = strings.ToLower(strings.TrimSpace(op))
	}
}

// EnvVar returns the environment variable that sets key, or "".
func EnvVar(key string) string {
	for name, k := range envKeys {
		if k == key {
			return name
		}
	}
	return ""
}

// FileValue returns key's value from the JSON config file at path.
func FileValue(path, key string) (any, bool) {
	k := koanf.New(".")
	if err := loadFile(k, path); err != nil || !k.Exists(key) {
		return nil, false
	}
	return k.Get(key), true
}

// Values returns the configuration keyed by configuration key.
func (c *Configuration) Values() map[string]any {
	return map[string]any{
		"dbt_path":            c.DBTPath,
		"project_dir":         c.ProjectDir,
		"env_file":            c.EnvFile,
		"log_level":           c.LogLevel,
		"timeout":             c.Timeout,
		"kill_grace":          c.KillGrace,
		"include_diagnostics": c.IncludeDiagnostics,
		"strict_operations":   c.StrictOperations,
		"mock_fixtures":       c.MockFixtures,
		"output_format":       c.OutputFormat,
	}
}

// DefaultConfigPath returns the user-level config file path, or empty when
// no config directory can be determined.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dbt-cli-mcp", "config.json")
}

func displayPath(path string) string {
	if path == "" {
		return "the config file"
	}
	return path
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
