// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/audita/internal/anchor"
	"github.com/starford/audita/internal/api"
	"github.com/starford/audita/internal/digest"
	"github.com/starford/audita/internal/ledger"
	"github.com/starford/audita/internal/metrics"
	"github.com/starford/audita/internal/pipeline"
	"github.com/starford/audita/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Int("queue_capacity", cfg.Pipeline.QueueCapacity),
		slog.Int("batch_size", cfg.Pipeline.BatchSize),
		slog.Int("workers", cfg.Pipeline.Workers),
		slog.Bool("ethereum_disabled", cfg.Ethereum.Disable),
		slog.Bool("elastic_disabled", cfg.Elastic.Disable),
		slog.Int("digest_version", digest.Version),
		slog.String("log_level", cfg.App.LogLevel.String()))

	m := metrics.New()
	pipe := pipeline.New(cfg.Pipeline.QueueCapacity)

	// Ledger backend.
	var led ledger.Ledger
	if cfg.Ethereum.Disable {
		led = ledger.NewMemory()
	} else {
		eth, err := ledger.NewEthereum(ctx, cfg.Ethereum.URL, cfg.Ethereum.Contract, cfg.Ethereum.PrivateKey)
		if err != nil {
			return fmt.Errorf("init ledger: %w", err)
		}
		led = eth
	}

	anchorer, err := anchor.New(ctx, led, cfg.Ethereum.MaxPendingTxs)
	if err != nil {
		return fmt.Errorf("init anchorer: %w", err)
	}

	// Storage backend.
	var repo store.Repository
	if cfg.Elastic.Disable {
		repo = store.NewMemory()
	} else {
		es, err := store.NewElastic(cfg.Elastic.URL, cfg.Elastic.Username, cfg.Elastic.Password, cfg.Elastic.IndexLayout)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		repo = es
	}

	// Build API handlers and router.
	handler := api.NewHandler(pipe, anchorer, repo, m)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", m.Handler())
	r.Mount("/api", api.NewRouter(handler))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Batching stage. The downstream queues close once every worker
	// instance has drained the document queue and flushed its partial
	// batch.
	g.Go(func() error {
		workers := new(errgroup.Group)
		for i := 0; i < cfg.Pipeline.Workers; i++ {
			w := pipeline.NewWorker(pipe, cfg.Pipeline.BatchSize, m)
			workers.Go(func() error { return w.Run(gCtx) })
		}
		err := workers.Wait()
		pipe.Signer.Close()
		pipe.Storage.Close()
		return err
	})

	// Anchoring stage.
	g.Go(func() error {
		signers := new(errgroup.Group)
		for i := 0; i < cfg.Pipeline.Workers; i++ {
			s := pipeline.NewSigner(pipe, anchorer, m)
			signers.Go(func() error { return s.Run(gCtx) })
		}
		return signers.Wait()
	})

	// Persistence stage.
	g.Go(func() error {
		storages := new(errgroup.Group)
		for i := 0; i < cfg.Pipeline.Workers; i++ {
			s := pipeline.NewStorage(pipe, repo, m)
			storages.Go(func() error { return s.Run(gCtx) })
		}
		return storages.Wait()
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals: stop ingress first, then let the
	// pipeline drain through the closed queues.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		pipe.Documents.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
