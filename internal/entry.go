// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/tagfile/internal/api"
	"github.com/starford/tagfile/internal/index"
	"github.com/starford/tagfile/internal/mcpserver"
	"github.com/starford/tagfile/internal/sse"
)

// reloadDelay coalesces bursts of watcher events into one snapshot reload.
const reloadDelay = 500 * time.Millisecond

// Run starts the HTTP server, the folder watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("gallery_path", cfg.Gallery.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("counter_range", cfg.Rename.Counter.String()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Gallery.Path, 0o755); err != nil {
		return fmt.Errorf("create gallery dir: %w", err)
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	g, err := OpenGallery(cfg, logger, true, broker.PublishFileEvent)
	if err != nil {
		return err
	}
	defer g.Close()

	snap, err := g.Service.Load(ctx, nil)
	if err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}
	logger.Info("Gallery loaded", slog.Int("files", len(snap.Files)), slog.Int("tags", len(snap.Tags)))

	apiRouter := api.NewRouter(g.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := g.DB.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	eg, gCtx := errgroup.WithContext(ctx)

	reload := newDebouncer(reloadDelay, func() {
		if _, err := g.Service.Load(gCtx, nil); err != nil {
			logger.Warn("gallery reload failed", slog.String("error", err.Error()))
		}
	})
	defer reload.stop()

	// Folder watcher: forwards changes to SSE and refreshes the snapshot.
	eg.Go(func() error {
		return index.Watch(gCtx, g.DB, g.Store, g.Store.Root(), logger, func(kind, name string) {
			broker.PublishFileEvent(kind, name)
			reload.trigger()
		})
	})

	eg.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	eg.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs go to stderr since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.config.App.LogLevel}))
	}

	g, err := OpenGallery(app.config, logger, true, nil)
	if err != nil {
		return err
	}
	defer g.Close()

	if _, err := g.Service.Load(ctx, nil); err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}
	logger.Info("MCP server starting", slog.String("gallery_path", g.Store.Root()))
	return mcpserver.New(g.Service, app.version).ServeStdio()
}

// debouncer runs fn once, delay after the last trigger.
type debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
