package shared

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mcp-tools/dbt-cli-mcp/internal/config"
	"github.com/mcp-tools/dbt-cli-mcp/internal/dbt"
	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

// flagKeys maps global flags to the configuration keys they override.
var flagKeys = map[string]string{
	"dbt-path":    "dbt_path",
	"env-file":    "env_file",
	"log-level":   "log_level",
	"format":      "output_format",
	"timeout":     "timeout",
	"fixtures":    "mock_fixtures",
	"diagnostics": "include_diagnostics",
}

// ConfigPath returns the --config value, or the default path when unset.
func ConfigPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return path
}

// Overrides collects the global flags the user set explicitly, keyed by
// configuration key. Flags left at their defaults do not override the
// config file or environment.
func Overrides(cmd *cobra.Command) (map[string]any, error) {
	flags := cmd.Flags()
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		var (
			value any
			err   error
		)
		switch f.Value.Type() {
		case "int":
			value, err = flags.GetInt(name)
		case "bool":
			value, err = flags.GetBool(name)
		default:
			value, err = flags.GetString(name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading --%s: %w", name, err)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// LoadConfig loads configuration for cmd and initializes logging and error
// coloring from it.
func LoadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	overrides, err := Overrides(cmd)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidOptions, "flags", err, "invalid flag value")
	}
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigPath: ConfigPath(cmd),
		Overrides:  overrides,
	})
	if err != nil {
		return nil, err
	}

	isTTY := term.IsTerminal(int(os.Stderr.Fd()))
	if _, err := logging.Init(cfg.LogLevel, os.Stderr, isTTY); err != nil {
		return nil, apperrors.NewConfigError("invalid log level", err)
	}
	apperrors.SetColorEnabled(isTTY && os.Getenv("NO_COLOR") == "")
	return cfg, nil
}

// NewService builds the dbt service for cfg.
func NewService(cfg *config.Configuration) (*dbt.Service, error) {
	runner, err := dbt.NewRunner(cfg)
	if err != nil {
		return nil, err
	}
	return dbt.New(config.NewRuntime(cfg), runner), nil
}

// Bootstrap loads configuration and builds the dbt service for cmd.
func Bootstrap(cmd *cobra.Command) (*dbt.Service, *config.Configuration, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	svc, err := NewService(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

// OutputFormat returns the configured CLI output format.
func OutputFormat(cfg *config.Configuration) config.OutputFormat {
	f, err := config.NormalizeOutputFormat(cfg.OutputFormat)
	if err != nil {
		return config.OutputFormatText
	}
	return f
}

// AddGlobalFlags registers the persistent flags shared by every command.
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", config.DefaultConfigPath(), "Path to JSON config file")
	flags.String("dbt-path", "", "Path to the dbt executable (default from config, then \"dbt\")")
	flags.String("env-file", "", "Environment file loaded for each dbt invocation")
	flags.String("log-level", "", "Log level: DEBUG, INFO, WARNING, ERROR, CRITICAL")
	flags.String("format", "", "Output format: text, json, yaml, table")
	flags.Int("timeout", 0, "Seconds before a dbt invocation is terminated")
	flags.String("fixtures", "", "Answer invocations from a YAML fixture file instead of running dbt")
	flags.Bool("diagnostics", false, "Append command details to failed results")
}
