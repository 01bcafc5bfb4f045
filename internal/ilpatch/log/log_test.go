package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"ilpatch/internal/logging"
)

func TestLevel(t *testing.T) {
	t.Setenv(logging.EnvLevel, "")
	assert.Equal(t, slog.LevelInfo, Level(false))
	assert.Equal(t, slog.LevelDebug, Level(true))

	t.Setenv(logging.EnvLevel, "debug")
	assert.Equal(t, slog.LevelDebug, Level(false))
}

func TestSetupAndRecoverPanic(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, true)
	assert.True(t, Initialized())

	slog.Debug("decoding", "file", "patch.bytes")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "file=patch.bytes")

	var got any
	func() {
		defer RecoverPanic("worker", func(r any) { got = r })
		panic("boom")
	}()
	assert.Equal(t, "boom", got)
	assert.Contains(t, buf.String(), "Panic in worker")
	assert.Contains(t, buf.String(), "panic=boom")

	func() {
		defer RecoverPanic("quiet", func(any) { t.Error("no panic to recover") })
	}()
}
