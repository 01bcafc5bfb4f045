// Package log installs the slog default handler used for diagnostics.
// Decoder and unpacker records go through it; user-facing progress uses
// internal/logging.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"ilpatch/internal/logging"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Level is debug when the flag or ILPATCH_LOG_LEVEL=debug asks for it.
func Level(debugFlag bool) slog.Level {
	if debugFlag || logging.IsDebug() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Setup installs a text handler writing to w. Only the first call has
// effect; debug records carry their source position.
func Setup(w io.Writer, debugFlag bool) {
	initOnce.Do(func() {
		level := Level(debugFlag)
		handler := slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: level == slog.LevelDebug,
		})
		slog.SetDefault(slog.New(handler))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

// RecoverPanic must be deferred directly. A recovered panic is logged
// with its stack and handed to onPanic.
func RecoverPanic(name string, onPanic func(r any)) {
	r := recover()
	if r == nil {
		return
	}
	if Initialized() {
		slog.Error(fmt.Sprintf("Panic in %s", name), "panic", r, "stack", string(debug.Stack()))
	}
	if onPanic != nil {
		onPanic(r)
	}
}
