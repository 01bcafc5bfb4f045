package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof" // profiling
	"os"
	"time"

	"github.com/spf13/cobra"
)

// EnvProfile serves pprof on defaultProfileAddr when --pprof is not given.
const (
	EnvProfile         = "ILPATCH_PROFILE"
	defaultProfileAddr = "localhost:6060"
)

func profileAddr(cmd *cobra.Command) string {
	if addr, _ := cmd.Flags().GetString("pprof"); addr != "" {
		return addr
	}
	if os.Getenv(EnvProfile) != "" {
		return defaultProfileAddr
	}
	return ""
}

// serveProfiler starts net/http/pprof on addr and returns the bound
// address and a function that stops the server.
func serveProfiler(addr string) (string, func() error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("pprof listen: %w", err)
	}
	srv := &http.Server{Handler: http.DefaultServeMux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to serve pprof", "error", err)
		}
	}()
	slog.Info("Serving pprof", "addr", ln.Addr().String())
	return ln.Addr().String(), srv.Close, nil
}
