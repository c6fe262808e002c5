package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/civlobby/internal/api"
	"github.com/mcoot/civlobby/internal/config"
	"github.com/mcoot/civlobby/internal/factory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	app, err := factory.New(cfg.Factory(logger))
	if err != nil {
		return err
	}

	server := api.NewServer(app.Router(), cfg.APIServer(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Fanout.Run(ctx)
	})

	g.Go(func() error {
		if err := server.Start(); err != nil {
			return err
		}
		// Start only returns cleanly after Shutdown
		return nil
	})

	g.Go(func() error {
		cleanSessions(ctx, app, cfg.Sessions.CleanupInterval, logger)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		// Close push connections first so Shutdown is not held open by streams
		app.Registry.Close()
		shutdownErr := server.Shutdown(context.Background())
		return errors.Join(shutdownErr, app.Storage.Close())
	})

	logger.Info("server started", slog.String("addr", server.Addr()))
	return g.Wait()
}

// cleanSessions periodically drops expired guest sessions
func cleanSessions(ctx context.Context, app *factory.App, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.AuthService.CleanExpiredSessions(); n > 0 {
				logger.Info("expired sessions removed", slog.Int("count", n))
			}
		}
	}
}
