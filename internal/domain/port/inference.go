package port

import (
	"context"

	"plant-id/internal/domain/entity"
)

// InferenceClient интерфейс клиента мультимодальной модели.
// Реализации: прямой вызов сервиса или вызов через прокси.
type InferenceClient interface {
	// Infer отправляет запрос один раз и возвращает сырой JSON-текст ответа
	Infer(ctx context.Context, req entity.IdentificationRequest) (string, error)
}
