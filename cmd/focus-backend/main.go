// Package main содержит точку входа backend-сервиса фокус-трекера.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/focus-backend/internal/app/focusbackend"
	"github.com/magabrotheeeer/focus-backend/internal/config"
	"github.com/magabrotheeeer/focus-backend/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting focus-backend", slog.String("env", cfg.Env))
	logger.Debug("debug messages are enabled", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := focusbackend.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("focus-backend stopped gracefully")
}
