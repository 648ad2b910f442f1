package invocation

import (
	"time"
)

// List output modes accepted by the ls operation.
const (
	OutputJSON     = "json"
	OutputName     = "name"
	OutputPath     = "path"
	OutputSelector = "selector"
)

// Options is the immutable input for a single invocation. Each call builds
// its own value; nothing here is shared between concurrent invocations.
type Options struct {
	// Executable is the path or name of the dbt executable.
	Executable string `validate:"required"`

	// WorkDir is the dbt project directory the process runs in.
	WorkDir string `validate:"required"`

	// EnvFile is the environment file to overlay. Relative paths are
	// resolved against WorkDir. Empty disables the overlay.
	EnvFile string

	// Models is the node selection expression (--select).
	Models string

	// Selector is a named selector from selectors.yml (--selector).
	Selector string

	// Exclude is an exclusion expression (--exclude).
	Exclude string

	// ResourceType filters list output (--resource-type).
	ResourceType string `validate:"omitempty,oneof=model test seed snapshot source analysis exposure metric semantic_model saved_query unit_test function"`

	// OutputFormat is the list rendering mode, or "json" to request
	// structured preview output.
	OutputFormat string `validate:"omitempty,oneof=json name path selector"`

	// Limit caps preview rows (--limit). Zero means the tool default.
	Limit int `validate:"min=0"`

	// FullRefresh emits --full-refresh when true.
	FullRefresh bool

	// Timeout is the ceiling for the process. Zero means the executor default.
	Timeout time.Duration `validate:"min=0"`
}
