package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: LevelWarn, Format: FormatJSON}, &buf)
	require.NoError(t, err)

	l.Info().Msg("hidden")
	l.Warn().Str("curve", "A").Msg("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"curve":"A"`)
	require.Contains(t, out, `"level":"warn"`)
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: LevelDebug, Format: FormatConsole}, &buf)
	require.NoError(t, err)

	l.Debug().Msg("fitting")
	require.Contains(t, buf.String(), "fitting")
	require.NotContains(t, buf.String(), `"message"`)
}

func TestNewInvalid(t *testing.T) {
	_, err := New(Config{Level: "loud", Format: FormatJSON}, nil)
	require.ErrorContains(t, err, "invalid log level")

	_, err = New(Config{Level: LevelInfo, Format: "xml"}, nil)
	require.ErrorContains(t, err, "invalid log format")
}
