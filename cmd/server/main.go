package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"credo/internal/platform/config"
	"credo/internal/platform/httpserver"
	"credo/internal/platform/logger"
)

// main wires dependencies and runs the HTTP server until SIGINT or SIGTERM.
// Registry logic lives in internal/registry.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := httpserver.New(cfg.Server.Addr, app.Router())
	log.Info("starting credo registry",
		"addr", cfg.Server.Addr,
		"store", cfg.Store,
		"owner", app.owner.Hex(),
		"kafka", len(cfg.Kafka.Brokers) > 0,
	)

	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}
