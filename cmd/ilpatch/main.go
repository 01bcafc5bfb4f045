package main

import (
	"context"
	"log/slog"
	"os"

	"ilpatch/internal/ilpatch/cmd"
	"ilpatch/internal/ilpatch/log"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer log.RecoverPanic("main", func(r any) {
		slog.Error("ilpatch terminated by an unhandled panic")
		code = 2
	})
	return cmd.Execute(context.Background())
}
