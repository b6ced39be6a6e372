package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/lesson.view/internal/api"
	"github.com/banshee-data/lesson.view/internal/app"
	"github.com/banshee-data/lesson.view/internal/config"
	"github.com/banshee-data/lesson.view/internal/progress"
	"github.com/banshee-data/lesson.view/internal/telemetry"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a lesson with the HTTP control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt)
		},
	}
	cmd.Flags().StringVar(&rt.Listen, "listen", rt.Listen, "listen address")
	cmd.Flags().BoolVar(&rt.DevMode, "dev", rt.DevMode, "log every request")
	return cmd
}

func serve(ctx context.Context, rt config.Runtime) error {
	if rt.Listen == "" {
		return errors.New("listen address is required")
	}
	cfg, err := config.LoadLesson(rt.ConfigPath)
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: "lesson",
		Endpoint:    rt.OTelEndpoint,
		Enabled:     rt.OTelEnabled,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	store, err := progress.Open(rt.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open progress database: %w", err)
	}
	defer store.Close()
	if _, err := store.BeginSession(cfg.GetTitle()); err != nil {
		return err
	}

	a, err := app.New(cfg, app.WithObserver(store.Observe))
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	mux := http.NewServeMux()
	// admin debugging routes, reachable from loopback or over Tailscale
	if err := store.AttachAdminRoutes(mux); err != nil {
		return err
	}
	mux.Handle("/api/", http.StripPrefix("/api", api.NewServer(a, store).ServeMux()))

	var handler http.Handler = mux
	if rt.DevMode {
		handler = api.LoggingMiddleware(mux)
	}
	server := &http.Server{
		Addr:              rt.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	// frame driver
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("frame loop stopped: %v", err)
		}
		log.Print("frame routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("[lesson] serving %q on http://%s/api/", cfg.GetTitle(), rt.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		log.Printf("failed to start server: %v", err)
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	stopRun()
	wg.Wait()
	log.Printf("Graceful shutdown complete")
	return err
}
