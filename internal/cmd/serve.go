package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docnav/internal/api"
	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/dgallion1/docnav/internal/watch"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve sidebars over HTTP, rebuilding on change",
		Long: `Serve sidebars over HTTP, rebuilding when pages or the site file change.

Environment Variables:
  PORT                   Listen port (default 8090)
  DOCNAV_API_KEY         Bearer token for POST /api/rebuild (required)
  DOCNAV_WATCH           Rebuild on file changes (default true)
  DOCNAV_WATCH_DEBOUNCE  Quiet period before a rebuild (default 500ms)
  DOCNAV_BUILD_TTL       How long old builds stay addressable (default 1h)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.SiteFile = g.siteFile
			cfg.DocsRoot = g.docsRoot
			cfg.Workers = g.workers
			if level, err := config.ParseLevel(g.logLevel); err == nil {
				cfg.LogLevel = level
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize pipeline; the first build must succeed.
	orch := pipeline.NewOrchestrator(pipeline.FileLoader(cfg.SiteFile, cfg.DocsRoot, cfg.Workers, log), cfg.BuildTTL, log)
	first, _, err := orch.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("initial build: %w", err)
	}
	orch.Start(ctx)
	defer orch.Stop()

	if cfg.Watch {
		docsRoot := cfg.DocsRoot
		if docsRoot == "" {
			site, err := config.LoadSite(cfg.SiteFile)
			if err != nil {
				return err
			}
			docsRoot = site.DocsRoot
		}
		w, err := watch.New(docsRoot, cfg.SiteFile, cfg.WatchDebounce, orch.Trigger, log)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}
	}()

	log.Info("starting docnav", "port", cfg.Port, "build_id", first.ID, "pages", first.Pages)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-shutdownDone
		return fmt.Errorf("server error: %w", err)
	}
	<-shutdownDone
	return nil
}
