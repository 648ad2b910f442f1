package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report koanf key names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError represents a configuration validation error with context
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	path := e.FilePath
	if path == "" {
		path = "config"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", path, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", path, e.Message)
}

// ValidateJSONSyntax checks if the JSON file has valid syntax.
// Returns nil if valid, or a ValidationError with line/column information if invalid.
func ValidateJSONSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing file is not an error - will use defaults
		}
		if os.IsPermission(err) {
			return &ValidationError{FilePath: filePath, Message: "permission denied"}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
	return ValidateJSONSyntaxFromBytes(data, filePath)
}

// ValidateJSONSyntaxFromBytes checks if JSON data has valid syntax.
func ValidateJSONSyntaxFromBytes(data []byte, filePath string) error {
	// Empty data is valid - will use defaults
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var v map[string]any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, column := lineColumn(data, syntaxErr.Offset)
		return &ValidationError{FilePath: filePath, Line: line, Column: column, Message: syntaxErr.Error()}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{FilePath: filePath, Message: "top level must be a JSON object"}
	}
	return &ValidationError{FilePath: filePath, Message: err.Error()}
}

// lineColumn converts a byte offset into 1-based line and column numbers.
func lineColumn(data []byte, offset int64) (line, column int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, column = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			column = 1
			continue
		}
		column++
	}
	return line, column
}

// ValidateConfigValues validates configuration values against expected types and constraints.
// Returns nil if valid, or a ValidationError with field information if invalid.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{FilePath: filePath, Field: fe.Field(), Message: describe(fe)}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}

	for _, op := range cfg.StrictOperations {
		if !invocation.Known(invocation.Operation(op)) {
			return &ValidationError{
				FilePath: filePath,
				Field:    "strict_operations",
				Message:  fmt.Sprintf("unknown operation %q (valid: %s)", op, operationNames()),
			}
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s (got %q)", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s (got %v)", fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("must be at most %s (got %v)", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func operationNames() string {
	ops := invocation.Operations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
