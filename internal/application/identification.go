package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"plant-id/internal/domain/contract"
	"plant-id/internal/domain/entity"
	"plant-id/internal/domain/port"
	apperrors "plant-id/internal/platform/errors"
)

// IdentificationService конвейер распознавания:
// нормализация → запрос → вызов модели → разбор ответа.
// Общего изменяемого состояния нет, каждый вызов работает со своими данными.
type IdentificationService struct {
	normalizer port.ImageNormalizer
	inference  port.InferenceClient
	model      string
	timeout    time.Duration
	logger     *slog.Logger
}

// ServiceOptions необязательные параметры сервиса.
type ServiceOptions struct {
	Model   string
	Timeout time.Duration // 0: без ограничения
	Logger  *slog.Logger
}

// NewIdentificationService создаёт сервис. inference может быть nil, если
// ключ не настроен: тогда любой вызов модели вернёт KindConfig.
func NewIdentificationService(normalizer port.ImageNormalizer, inference port.InferenceClient, opts ServiceOptions) *IdentificationService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Model == "" {
		opts.Model = contract.DefaultModel
	}
	return &IdentificationService{
		normalizer: normalizer,
		inference:  inference,
		model:      opts.Model,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}
}

// Ready сообщает, можно ли обращаться к модели.
func (s *IdentificationService) Ready() error {
	if s.inference == nil {
		return apperrors.New(apperrors.KindConfig, "identify.ready", "Server configuration error: API_KEY is missing")
	}
	return nil
}

// Identify прогоняет исходное изображение через весь конвейер.
func (s *IdentificationService) Identify(ctx context.Context, raw entity.RawImage) (entity.Identification, error) {
	if s.normalizer == nil {
		return nil, apperrors.New(apperrors.KindConfig, "identify.normalize", "normalizer is not configured")
	}

	payload, err := s.normalizer.Normalize(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalize image: %w", err)
	}
	return s.IdentifyPayload(ctx, payload)
}

// IdentifyPayload выполняет часть конвейера после нормализации. Ошибка
// возвращается сразу, повторов нет.
func (s *IdentificationService) IdentifyPayload(ctx context.Context, payload entity.EncodedPayload) (entity.Identification, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	req, err := contract.BuildRequest(s.model, payload)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	text, err := s.inference.Infer(ctx, req)
	if err != nil {
		s.logger.Warn("inference failed", "model", req.Model, "kind", apperrors.KindOf(err), "error", err)
		return nil, apperrors.Wrap(apperrors.KindTransport, "identify.infer", "inference failed", err)
	}

	result, err := contract.ParseResult(text)
	if err != nil {
		s.logger.Warn("model response rejected", "model", req.Model, "error", err)
		return nil, err
	}

	s.logger.Info("image identified",
		"model", req.Model,
		"category", result.Category(),
		"name", result.Title(),
		"width", payload.Width,
		"height", payload.Height,
		"duration", time.Since(started),
	)
	return result, nil
}
