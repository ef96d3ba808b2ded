package main

import (
	"context"
	"log/slog"
	"os"

	"hradmin/internal/app/server"
	"hradmin/internal/platform/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
