package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/config"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/web"
)

const shutdownTimeout = 5 * time.Second

// main - is the entry point of the application. It initializes the configuration, logger, and runs the server.
func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: conf.SlogLevel()}))

	if err := run(logger, conf); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run serves the game until SIGINT or SIGTERM.
func run(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := app.NewService(logger, app.WithThinkDelay(conf.ThinkDelay))
	srv := &http.Server{
		Addr:              conf.HTTPAddr,
		Handler:           web.NewServer(logger, svc),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "addr", conf.HTTPAddr, "think_delay", conf.ThinkDelay)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
