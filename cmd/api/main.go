// Command api serves the read-only product catalogue and its price history.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricesync/internal/config"
	"pricesync/internal/database"
	"pricesync/internal/handler"
	"pricesync/internal/repository"
	"pricesync/internal/router"
	"pricesync/internal/service"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const appName = "pricesync-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Auth.Validate(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, appName, os.Stdout)

	pool, err := database.NewPool(ctx, cfg.Database, appName, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise database: %w", err)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	products := service.NewProductService(
		repository.NewProductRepository(pool, logger),
		repository.NewPriceRepository(pool, logger),
		logger,
	)

	server := &http.Server{
		Addr: cfg.Server.Address(),
		Handler: router.New(
			handler.NewProductHandler(products, logger),
			handler.NewHealthHandler(pool, logger),
			router.Options{
				APIKey:        cfg.Auth.APIKey,
				AllowedOrigin: cfg.Server.AllowedOrigin,
				Logger:        logger,
			},
		),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return serve(ctx, server, cfg.Server.ShutdownTimeout(), logger)
}

// serve runs server until ctx is cancelled, then drains in-flight requests within timeout.
func serve(ctx context.Context, server *http.Server, timeout time.Duration, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", server.Addr).Msg("catalogue API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down catalogue API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed, closing connections")
			_ = server.Close()
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("catalogue API stopped")
	return nil
}
