package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/scribeflow/scribeflow/external/config"
	"github.com/scribeflow/scribeflow/external/httpserver"
	storageimpl "github.com/scribeflow/scribeflow/external/storage"
	transcriberimpl "github.com/scribeflow/scribeflow/external/transcriber"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/identity"
	"github.com/scribeflow/scribeflow/internal/transcript"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching http server")
	runServer(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	storageimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	identity.RegisterDI(injector)
	transcript.RegisterDI(injector)
	httpserver.RegisterDI(injector)

	return injector
}

func runServer(injector do.Injector) {
	srv, err := do.Invoke[*httpserver.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
}
