package format

import (
	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

// Formatter shapes a payload into caller-facing text. Formatters never fail.
type Formatter func(Payload) string

// Default serializes structured payloads as compact JSON and passes raw
// text through unchanged.
func Default(p Payload) string {
	if !p.Structured {
		return p.Text
	}
	out, err := marshal(p.Value, "")
	if err != nil {
		degraded("default", err.Error())
		return p.Text
	}
	return out
}

func degraded(formatter, reason string) {
	logging.For("format").Warn().
		Str("kind", apperrors.FormattingDegraded.String()).
		Str("formatter", formatter).
		Msg(reason)
}
