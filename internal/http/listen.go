package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// newHTTPServer returns an http.Server with the timeouts shared by the API and metrics servers.
func newHTTPServer(host string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// listenAndServe blocks until srv stops. A server closed through Shutdown is not an error.
func listenAndServe(srv *http.Server, logger *slog.Logger, name string) error {
	logger.Info("starting "+name, slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// shutdown stops srv, waiting for in-flight requests until ctx is done.
func shutdown(ctx context.Context, srv *http.Server, logger *slog.Logger, name string) error {
	logger.Info("shutting down " + name)
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down %s: %w", name, err)
	}
	return nil
}
