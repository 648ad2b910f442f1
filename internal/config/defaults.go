package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"dbt_path":            "dbt",
		"project_dir":         ".",
		"env_file":            ".env",
		"log_level":           "INFO",
		"timeout":             1800,
		"kill_grace":          5,
		"include_diagnostics": false,
		"strict_operations":   []string{},
		"mock_fixtures":       "",
		"output_format":       "text",
	}
}
