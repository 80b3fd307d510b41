package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"plant-id/config"
	"plant-id/internal/api/telegram"
	"plant-id/internal/container"
	"plant-id/internal/infrastructure/storage"
	"plant-id/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()

	// Собираем сервисы приложения; без ключа бот не стартует
	appContainer, err := container.New(ctx, cfg, userRepo, logger, container.Options{})
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.Sessions, logger.With("component", "telegram"))
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info("bot is running", "provider", cfg.Provider, "model", cfg.Model)
	if err := bot.Run(ctx); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	logger.Info("bot stopped")
}
