// Command server starts the candidate sourcing HTTP server.
package main

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

	httpserver "github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/app"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	engine, err := app.BuildEngine(cfg)
	if err != nil {
		slog.Error("engine wiring failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("engine wired",
		slog.Any("sources", engine.SourceIDs),
		slog.String("cache_kind", cfg.CacheKind),
		slog.Bool("ai_enabled", engine.AI != nil))

	srv := httpserver.NewServer(cfg, engine.Orchestrator, engine.Limiter, engine.AI, engine.Cache, engine.SourceIDs)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
