package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeEnum
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Key name (e.g., "dbt_path")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Min, Max      int             // Inclusive bounds for int types
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"dbt_path": {
		Path:        "dbt_path",
		Type:        TypeString,
		Description: "Path to the dbt executable",
		Default:     "dbt",
	},
	"project_dir": {
		Path:        "project_dir",
		Type:        TypeString,
		Description: "Default dbt project directory",
		Default:     ".",
	},
	"env_file": {
		Path:        "env_file",
		Type:        TypeString,
		Description: "Environment file loaded for every dbt invocation, relative to the project",
		Default:     ".env",
	},
	"log_level": {
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"},
		Description:   "Log level for stderr logging",
		Default:       "INFO",
	},
	"timeout": {
		Path:        "timeout",
		Type:        TypeInt,
		Min:         1,
		Max:         86400,
		Description: "Seconds before a dbt invocation is terminated",
		Default:     1800,
	},
	"kill_grace": {
		Path:        "kill_grace",
		Type:        TypeInt,
		Min:         0,
		Max:         300,
		Description: "Seconds between SIGTERM and SIGKILL when terminating dbt",
		Default:     5,
	},
	"include_diagnostics": {
		Path:        "include_diagnostics",
		Type:        TypeBool,
		Description: "Append command details to failed results",
		Default:     false,
	},
	"strict_operations": {
		Path:        "strict_operations",
		Type:        TypeList,
		Description: "Operations that also fail when stderr reports ERROR or FAIL (comma-separated)",
		Default:     []string{},
	},
	"mock_fixtures": {
		Path:        "mock_fixtures",
		Type:        TypeString,
		Description: "YAML fixture file; when set, dbt is never started",
		Default:     "",
	},
	"output_format": {
		Path:          "output_format",
		Type:          TypeEnum,
		AllowedValues: ValidOutputFormatNames(),
		Description:   "Default CLI output format",
		Default:       "text",
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// KeyNames returns all known keys, sorted.
func KeyNames() []string {
	names := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParsedValue represents a configuration value after validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(schema, value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeList:
		return ParsedValue{Raw: value, Parsed: splitList(value), Type: TypeList}, nil
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses and validates an integer value within the schema bounds.
func parseIntValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	if n < schema.Min || (schema.Max > 0 && n > schema.Max) {
		return ParsedValue{}, fmt.Errorf("%s must be between %d and %d, got %d", schema.Path, schema.Min, schema.Max, n)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if strings.EqualFold(value, allowed) {
			return ParsedValue{Raw: value, Parsed: allowed, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}
