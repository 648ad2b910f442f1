package invocation

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

var validate = validator.New()

// Invocation is a fully resolved external-process call.
type Invocation struct {
	// Operation is the dbt operation being invoked.
	Operation Operation

	// Executable is the program to start.
	Executable string

	// Args is the argument vector: operation name first, then flags.
	Args []string

	// WorkDir is the process working directory.
	WorkDir string

	// EnvFile is the resolved environment file path, or empty.
	EnvFile string

	// EnvDefaults are applied only for keys the merged environment lacks.
	EnvDefaults map[string]string

	// Timeout is the execution ceiling. Zero means the executor default.
	Timeout time.Duration
}

// Argv returns the executable followed by Args.
func (i Invocation) Argv() []string {
	argv := make([]string, 0, len(i.Args)+1)
	argv = append(argv, i.Executable)
	return append(argv, i.Args...)
}

// CommandLine returns a printable representation of Argv.
func (i Invocation) CommandLine() string {
	parts := make([]string, 0, len(i.Args)+1)
	for _, a := range i.Argv() {
		if strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Build resolves op and opts into an Invocation. The argument vector is
// deterministic for identical input. Fields the operation does not support
// are omitted; a missing required field yields an InvalidOptions error.
func Build(op Operation, opts Options) (Invocation, error) {
	caps, ok := operations[op]
	if !ok {
		return Invocation{}, apperrors.NewInvalidOptions(string(op),
			fmt.Sprintf("unknown operation %q", op))
	}

	opts = normalize(opts)
	if err := validateOptions(op, opts); err != nil {
		return Invocation{}, err
	}
	if caps.jsonOutput && opts.OutputFormat != "" && opts.OutputFormat != OutputJSON {
		return Invocation{}, apperrors.NewInvalidOptions(string(op),
			fmt.Sprintf("output_format must be %q for %s, got %q", OutputJSON, op.Display(), opts.OutputFormat),
			"omit output_format or set it to json")
	}
	if caps.requireModel && opts.Models == "" {
		return Invocation{}, apperrors.NewInvalidOptions(string(op),
			fmt.Sprintf("models is required for %s", op.Display()),
			"pass the model to preview, e.g. models=\"customers\"")
	}

	args := []string{string(op)}
	if caps.selection {
		args = appendFlag(args, "--select", opts.Models)
	}
	if caps.selector {
		args = appendFlag(args, "--selector", opts.Selector)
		args = appendFlag(args, "--exclude", opts.Exclude)
	}
	if caps.resourceType {
		args = appendFlag(args, "--resource-type", opts.ResourceType)
	}
	if caps.listOutput {
		mode := opts.OutputFormat
		if mode == "" {
			mode = OutputJSON
		}
		args = appendFlag(args, "--output", mode)
		args = append(args, "--quiet")
	}
	if caps.limit && opts.Limit > 0 {
		args = appendFlag(args, "--limit", strconv.Itoa(opts.Limit))
	}
	if caps.jsonOutput && opts.OutputFormat == OutputJSON {
		args = appendFlag(args, "--output", OutputJSON)
	}
	if caps.fullRefresh && opts.FullRefresh {
		args = append(args, "--full-refresh")
	}

	logUnsupported(op, caps, opts)

	return Invocation{
		Operation:   op,
		Executable:  opts.Executable,
		Args:        args,
		WorkDir:     opts.WorkDir,
		EnvFile:     resolveEnvFile(opts.WorkDir, opts.EnvFile),
		EnvDefaults: envDefaults(opts.WorkDir),
		Timeout:     opts.Timeout,
	}, nil
}

// appendFlag emits name and value as two tokens, or nothing for an empty value.
func appendFlag(args []string, name, value string) []string {
	if value == "" {
		return args
	}
	return append(args, name, value)
}

func normalize(opts Options) Options {
	opts.Executable = strings.TrimSpace(opts.Executable)
	opts.WorkDir = strings.TrimSpace(opts.WorkDir)
	opts.EnvFile = strings.TrimSpace(opts.EnvFile)
	opts.Models = strings.TrimSpace(opts.Models)
	opts.Selector = strings.TrimSpace(opts.Selector)
	opts.Exclude = strings.TrimSpace(opts.Exclude)
	opts.ResourceType = strings.ToLower(strings.TrimSpace(opts.ResourceType))
	opts.OutputFormat = strings.ToLower(strings.TrimSpace(opts.OutputFormat))
	return opts
}

func validateOptions(op Operation, opts Options) error {
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperrors.Wrap(apperrors.InvalidOptions, string(op), err, "invalid options")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return apperrors.NewInvalidOptions(string(op), strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must be >= %s, got %v", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

func logUnsupported(op Operation, caps capabilities, opts Options) {
	var ignored []string
	if !caps.selection && opts.Models != "" {
		ignored = append(ignored, "models")
	}
	if !caps.selector && (opts.Selector != "" || opts.Exclude != "") {
		ignored = append(ignored, "selector/exclude")
	}
	if !caps.resourceType && opts.ResourceType != "" {
		ignored = append(ignored, "resource_type")
	}
	if !caps.limit && opts.Limit > 0 {
		ignored = append(ignored, "limit")
	}
	if !caps.fullRefresh && opts.FullRefresh {
		ignored = append(ignored, "full_refresh")
	}
	if len(ignored) > 0 {
		logging.For("invocation").Debug().
			Str("operation", string(op)).
			Strs("ignored", ignored).
			Msg("options not supported by operation were omitted")
	}
}

func resolveEnvFile(workDir, envFile string) string {
	if envFile == "" || filepath.IsAbs(envFile) {
		return envFile
	}
	return filepath.Join(workDir, envFile)
}

// envDefaults returns variables the wrapped tool expects when the caller's
// environment does not provide them.
func envDefaults(workDir string) map[string]string {
	defaults := make(map[string]string, 2)
	if home, err := os.UserHomeDir(); err == nil {
		defaults["HOME"] = home
	}
	if abs, err := filepath.Abs(workDir); err == nil {
		defaults["DBT_PROFILES_DIR"] = abs
	}
	return defaults
}

// VersionProbe is the invocation used to ask the executable for its version.
// It is not an operation: it carries no options and is never exposed to
// callers.
func VersionProbe(executable, workDir string) Invocation {
	return Invocation{
		Operation:   Version,
		Executable:  executable,
		Args:        []string{"--version"},
		WorkDir:     workDir,
		EnvDefaults: envDefaults(workDir),
	}
}
