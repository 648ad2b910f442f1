package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
	cfgpkg "github.com/mcp-tools/dbt-cli-mcp/internal/config"
)

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

The value type is inferred from the key and validated before the file is
written. Lists (strict_operations) are comma-separated.`,
	Example: `  # Point at a virtualenv's dbt
  dbt-mcp config set dbt_path ~/.venvs/dbt/bin/dbt

  # Terminate invocations after ten minutes
  dbt-mcp config set timeout 600

  # Treat stderr ERROR lines as failures for run and build
  dbt-mcp config set strict_operations run,build`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get the current value of a configuration key.

Shows the effective value and where it came from.`,
	Example: `  # Get the dbt executable
  dbt-mcp config get dbt_path`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configToggleCmd = &cobra.Command{
	Use:   "toggle <key>",
	Short: "Toggle a boolean configuration value",
	Long: `Toggle a boolean configuration value between true and false.

If the key is not set in the config file, it will be written as true.
Only works with boolean configuration keys.`,
	Example: `  # Toggle failure diagnostics
  dbt-mcp config toggle include_diagnostics`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigToggle,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all available configuration keys",
	Long:  `Display all valid configuration keys with their types and descriptions.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configToggleCmd)
	configCmd.AddCommand(configKeysCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	out := cmd.OutOrStdout()

	if _, err := cfgpkg.GetKeySchema(key); err != nil {
		return formatUnknownKeyError(key)
	}
	filePath := shared.ConfigPath(cmd)
	if err := cfgpkg.SetConfigValue(filePath, key, value); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %s in %s\n", key, value, filePath)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	out := cmd.OutOrStdout()

	schema, err := cfgpkg.GetKeySchema(key)
	if err != nil {
		return formatUnknownKeyError(key)
	}

	if f := cmd.Flags().Lookup(flagForKey(key)); f != nil && f.Changed {
		fmt.Fprintf(out, "%s: %s (from --%s flag)\n", key, f.Value.String(), f.Name)
		return nil
	}
	if name := cfgpkg.EnvVar(key); name != "" {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			fmt.Fprintf(out, "%s: %s (from %s)\n", key, v, name)
			return nil
		}
	}
	filePath := shared.ConfigPath(cmd)
	if v, ok := cfgpkg.FileValue(filePath, key); ok {
		fmt.Fprintf(out, "%s: %v (from %s)\n", key, v, filePath)
		return nil
	}
	fmt.Fprintf(out, "%s: %v (default)\n", key, schema.Default)
	return nil
}

// flagForKey returns the global flag that overrides key, if any.
func flagForKey(key string) string {
	switch key {
	case "mock_fixtures":
		return "fixtures"
	case "include_diagnostics":
		return "diagnostics"
	case "output_format":
		return "format"
	default:
		return strings.ReplaceAll(key, "_", "-")
	}
}

func runConfigToggle(cmd *cobra.Command, args []string) error {
	key := args[0]
	out := cmd.OutOrStdout()

	schema, err := cfgpkg.GetKeySchema(key)
	if err != nil {
		return formatUnknownKeyError(key)
	}
	if schema.Type != cfgpkg.TypeBool {
		return fmt.Errorf("key %q is not a boolean (type: %s)", key, schema.Type)
	}

	filePath := shared.ConfigPath(cmd)
	currentValue := false
	if v, ok := cfgpkg.FileValue(filePath, key); ok {
		currentValue = v == true
	}

	newValue := !currentValue
	if err := cfgpkg.Persist(filePath, key, newValue); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}

	fmt.Fprintf(out, "Toggled %s: %t -> %t in %s\n", key, currentValue, newValue, filePath)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Available configuration keys:")
	fmt.Fprintln(out)

	for _, key := range cfgpkg.KeyNames() {
		schema := cfgpkg.KnownKeys[key]
		typeInfo := schema.Type.String()
		if schema.Type == cfgpkg.TypeEnum {
			typeInfo = fmt.Sprintf("enum (%s)", strings.Join(schema.AllowedValues, ", "))
		}
		fmt.Fprintf(out, "  %-40s %s\n", key, typeInfo)
		fmt.Fprintf(out, "    %s\n", schema.Description)
		if env := cfgpkg.EnvVar(key); env != "" {
			fmt.Fprintf(out, "    env: %s\n", env)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func formatUnknownKeyError(key string) error {
	return fmt.Errorf("unknown configuration key: %q\n\nValid keys:\n  %s",
		key, strings.Join(cfgpkg.KeyNames(), "\n  "))
}
