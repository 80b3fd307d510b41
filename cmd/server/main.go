package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"plant-id/config"
	"plant-id/internal/api/httpapi"
	"plant-id/internal/container"
	"plant-id/internal/infrastructure/storage"
	"plant-id/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Прокси стартует и без ключа: /api/identify ответит 500.
	// Провайдер proxy здесь запрещён, иначе сервер переслал бы запрос сам себе.
	appContainer, err := container.New(ctx, cfg, storage.NewMemoryUserRepository(), logger, container.Options{
		AllowMissingCredential: true,
		DirectOnly:             true,
	})
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}

	router := httpapi.NewRouter(appContainer.IdentificationService, httpapi.Options{
		MaxBodyBytes: cfg.MaxUploadBytes,
		Debug:        cfg.LogLevel == "debug",
		Logger:       logger.With("component", "http"),
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("proxy is listening", "addr", cfg.HTTPAddr, "provider", cfg.Provider, "model", cfg.Model)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down proxy")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("proxy stopped")
}
