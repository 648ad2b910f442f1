package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		"empty defaults to info": {input: "", want: zerolog.InfoLevel},
		"upper debug":            {input: "DEBUG", want: zerolog.DebugLevel},
		"lower warning":          {input: "warning", want: zerolog.WarnLevel},
		"warn alias":             {input: "warn", want: zerolog.WarnLevel},
		"critical":               {input: "CRITICAL", want: zerolog.FatalLevel},
		"unknown":                {input: "loud", want: zerolog.InfoLevel, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	_, err := Init("WARNING", &buf, false)
	require.NoError(t, err)

	l := For("executor")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"component":"executor"`)
}

func TestForChainsLevelMethods(t *testing.T) {
	var buf bytes.Buffer
	_, err := Init("DEBUG", &buf, false)
	require.NoError(t, err)

	For("format").Warn().Str("formatter", "list").Msg("degraded")
	For("envfile").Debug().Msg("environment file not found")

	out := buf.String()
	assert.Contains(t, out, `"component":"format"`)
	assert.Contains(t, out, `"formatter":"list"`)
	assert.Contains(t, out, `"component":"envfile"`)
}
