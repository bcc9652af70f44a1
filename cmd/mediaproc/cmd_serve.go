package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-processor/internal/logging"
	"media-processor/internal/server"
	"media-processor/internal/startup"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health probes, metrics and the artifact directories",
	Long: "Serve exposes /healthz, /livez, /readyz, /version and /metrics plus\n" +
		"read-only file servers for the thumbnail and processed directories.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	started := time.Now()

	p, err := loadProcessor()
	if err != nil {
		return err
	}
	defer p.Close()

	startup.LogModelStatus(p.cfg, p.missingModels())

	srv := server.New(server.Options{
		ThumbnailsDir:   p.cfg.ThumbnailsDir,
		ThumbnailsMount: p.cfg.ThumbnailsMount,
		ProcessedDir:    p.cfg.ProcessedDir,
		ProcessedMount:  p.cfg.ProcessedMount,
		Backend:         p.cfg.Strategy.Backend(),
		MetricsEnabled:  p.cfg.MetricsEnabled,
		Ready:           p.missingModels,
	})
	startup.LogHTTPRoutes(srv.Router())

	httpSrv := &http.Server{
		Addr:              ":" + p.cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		handleShutdown(httpSrv)
		close(done)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            p.cfg.Port,
		MetricsEnabled:  p.cfg.MetricsEnabled,
		ThumbnailsMount: p.cfg.ThumbnailsMount,
		ProcessedMount:  p.cfg.ProcessedMount,
		StartupDuration: time.Since(started),
	})

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	signal.Stop(sigChan)

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
