package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"enroll/internal/app"
	"enroll/internal/platform/config"
	"enroll/internal/platform/httpserver"
	"enroll/internal/platform/logger"
)

// main wires the service, serves HTTP and runs the background workers until
// SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	router, err := a.Handler()
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg.Server.Addr, router)

	workers, cancelWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.Mailer.Run(workers)
	}()
	go func() {
		defer wg.Done()
		a.Poller.Run(workers)
	}()

	log.Info("starting enroll", "addr", cfg.Server.Addr, "environment", cfg.Server.Environment,
		"checkout_provider", cfg.Checkout.Provider, "notify_driver", cfg.Notify.Driver)
	err = httpserver.Serve(ctx, srv, log)

	// Workers stop after the server so hooks fired by in-flight requests
	// still reach the mail buffer.
	cancelWorkers()
	wg.Wait()
	return err
}
