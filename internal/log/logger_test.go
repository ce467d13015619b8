package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"DEBUG":   "debug",
		" warn ":  "warn",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"verbose": "info",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestNew_HonoursLevel(t *testing.T) {
	l := New("finance-link-service", "error")
	require.NotNil(t, l.Logger())

	assert.False(t, l.Logger().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Logger().Core().Enabled(zapcore.ErrorLevel))
}
