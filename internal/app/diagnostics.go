package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/neodes/internal/ctxlog"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// diagnosticsHandler serves /health and the parse metrics on /metrics.
func (a *App) diagnosticsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))
	return mux
}

// startDiagnosticsServer runs the diagnostics HTTP server in the background
// when a port is configured.
func (a *App) startDiagnosticsServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	port := a.config.Model.Diagnostics.Port
	if port <= 0 {
		logger.Debug("Diagnostics server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.diagnosticsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.httpServer = srv

	go func() {
		logger.Info("🩺 Diagnostics server starting", "address", fmt.Sprintf("http://localhost%s", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Diagnostics server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeDiagnosticsServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Debug("Shutting down diagnostics server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Diagnostics server shutdown failed", "error", err)
		return
	}
	a.httpServer = nil
	logger.Debug("Diagnostics server shut down gracefully.")
}
