package container

import (
	"context"
	"fmt"
	"log/slog"

	"plant-id/config"
	app "plant-id/internal/application"
	"plant-id/internal/domain/port"
	"plant-id/internal/infrastructure/imaging"
	"plant-id/internal/infrastructure/inference/gemini"
	"plant-id/internal/infrastructure/inference/openaicompat"
	"plant-id/internal/infrastructure/inference/proxy"
	apperrors "plant-id/internal/platform/errors"
)

type Container struct {
	UserService           *app.UserService
	IdentificationService *app.IdentificationService
	Sessions              *app.Sessions
}

// Options управляет сборкой.
type Options struct {
	// AllowMissingCredential: при отсутствии ключа сервис собирается без
	// клиента модели и каждый вызов отвечает KindConfig. Нужно прокси,
	// который обязан отвечать 500, а не падать при старте.
	AllowMissingCredential bool

	// DirectOnly запрещает провайдер proxy: прокси сам обращается к модели
	// и не должен пересылать запросы дальше, в том числе самому себе.
	DirectOnly bool
}

func New(ctx context.Context, cfg *config.Config, userRepo port.UserRepository, logger *slog.Logger, opts Options) (*Container, error) {
	if opts.DirectOnly && cfg.Provider == config.ProviderProxy {
		return nil, apperrors.New(apperrors.KindConfig, "container.inference",
			fmt.Sprintf("provider %q is not allowed here, use %q or %q", config.ProviderProxy, config.ProviderGemini, config.ProviderOpenAI))
	}

	scaler, err := imaging.NewScaler(cfg.ImageScaler)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "container.scaler", "build image scaler", err)
	}
	normalizer := imaging.NewNormalizer(cfg.ImageMaxDimension, cfg.ImageQuality, scaler, logger.With("component", "imaging"))

	inference, err := NewInferenceClient(ctx, cfg, logger.With("component", "inference"))
	if err != nil {
		if !opts.AllowMissingCredential || !apperrors.IsKind(err, apperrors.KindConfig) {
			return nil, err
		}
		logger.Error("inference client is not configured, identification requests will fail", "provider", cfg.Provider, "error", err)
		inference = nil
	}

	identification := app.NewIdentificationService(normalizer, inference, app.ServiceOptions{
		Model:   cfg.Model,
		Timeout: cfg.InferenceTimeout,
		Logger:  logger.With("component", "identification"),
	})

	return &Container{
		UserService:           app.NewUserService(userRepo),
		IdentificationService: identification,
		Sessions:              app.NewSessions(identification),
	}, nil
}

// NewInferenceClient выбирает реализацию клиента модели по INFERENCE_PROVIDER.
func NewInferenceClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.InferenceClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderOpenAI:
		c, err := openaicompat.NewClient(openaicompat.Config{APIKey: cfg.APIKey, BaseURL: cfg.OpenAIBaseURL}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderProxy:
		c, err := proxy.NewClient(cfg.ProxyURL, nil, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, apperrors.New(apperrors.KindConfig, "container.inference", fmt.Sprintf("unknown provider %q", cfg.Provider))
	}
}
