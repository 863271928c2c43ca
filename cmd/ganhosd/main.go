package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ganhos/internal/api"
	"ganhos/internal/config"
	"ganhos/internal/events"
	"ganhos/internal/httpapi"
	applog "ganhos/internal/log"
	"ganhos/internal/state"
	"ganhos/internal/storage"
	"ganhos/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting ganhosd")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// API client with token refresh when a refresh token is configured.
	var refresh api.RefreshFunc
	if cfg.APIRefreshToken != "" {
		refresh = api.NewRefreshFunc(cfg.APIBaseURL, cfg.APIRefreshToken, nil)
	}
	tokens := api.NewTokenProvider(cfg.APIToken, refresh)

	client, err := api.NewClient(cfg.APIBaseURL, api.WithTokenProvider(tokens))
	if err != nil {
		logger.Error("Failed to initialize API client", "error", err, "base_url", cfg.APIBaseURL)
		os.Exit(1)
	}

	storeOpts := []state.StoreOption{
		state.WithDashboardCacheTTL(cfg.DashboardCacheTTL),
	}

	// SQLite mirror doubles as the durable rollover guard.
	var mirror *storage.Mirror
	if !cfg.MirrorOff {
		mirror, err = storage.NewMirror(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite mirror", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer mirror.Close()
		storeOpts = append(storeOpts,
			state.WithMirror(mirror),
			state.WithRolloverGuard(mirror))
		logger.Info("SQLite mirror initialized", "path", cfg.SQLiteDBPath)
	} else {
		logger.Info("SQLite mirror disabled")
	}

	// Mutation events are optional; without AMQP_URL nothing publishes.
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		storeOpts = append(storeOpts, state.WithEvents(publisher))
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	store := state.NewStore(client, storeOpts...)

	syncWorker := worker.NewSyncWorker(store, worker.Config{
		SyncInterval:     cfg.SyncInterval,
		RolloverInterval: cfg.RolloverInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := syncWorker.Start(ctx); err != nil {
		logger.Error("Failed to start sync worker", "error", err)
		os.Exit(1)
	}

	// Optional: react to mutations from other sessions by reloading.
	// Own events are skipped by origin.
	if publisher != nil && cfg.AMQPConsume {
		go func() {
			err := publisher.Consume(ctx, func(msg *events.Mutation) error {
				if msg.Origin == publisher.Origin() {
					return nil
				}
				return store.Reload(ctx)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Event consumption stopped", "error", err)
			}
		}()
	}

	srv := httpapi.NewServer(":"+cfg.Port, store, func() bool {
		return !store.Snapshot().LastUpdated.IsZero()
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := syncWorker.Stop(shutdownCtx); err != nil {
			logger.Error("Worker shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting local API server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Stopped gracefully")
}
