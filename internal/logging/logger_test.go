package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		env  string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{"WARN", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"loud", log.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv(EnvLevel, tc.env)
			assert.Equal(t, tc.want, Level())
			assert.Equal(t, tc.want == log.DebugLevel, IsDebug())
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	t.Setenv(EnvPrefix, "graph")

	var buf bytes.Buffer
	lg := NewWithWriter(&buf)
	lg.Info("hidden")
	lg.Warn("wrote graph", "edges", 3)
	require.NoError(t, lg.Close())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "graph")
	assert.Contains(t, out, "wrote graph")
	assert.Contains(t, out, "edges=3")
}
