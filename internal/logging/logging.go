// Package logging configures the process-wide zerolog logger.
//
// Logs always go to stderr (or the writer given to Init): stdout is reserved
// for the MCP stdio transport and for CLI payloads.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel accepts zerolog level names and the upper-case names used by
// the wrapped tool's ecosystem (DEBUG, INFO, WARNING, ERROR, CRITICAL).
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return zerolog.InfoLevel, nil
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "TRACE":
		return zerolog.TraceLevel, nil
	case "WARN", "WARNING":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "CRITICAL", "FATAL":
		return zerolog.FatalLevel, nil
	case "DISABLED", "OFF":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Init configures the global logger. A nil writer means stderr. When console
// is true, output is human-readable; otherwise one JSON object per line.
func Init(level string, w io.Writer, console bool) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if w == nil {
		w = os.Stderr
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "dbt-cli-mcp").Logger()
	log.Logger = logger
	return logger, err
}

// For returns a sub-logger tagged with the component name.
func For(component string) *zerolog.Logger {
	l := log.Logger.With().Str("component", component).Logger()
	return &l
}
