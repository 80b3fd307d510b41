package port

import (
	"context"

	"plant-id/internal/domain/entity"
)

// ImageNormalizer интерфейс нормализатора изображений
type ImageNormalizer interface {
	// Normalize декодирует изображение, уменьшает его и перекодирует в JPEG
	Normalize(ctx context.Context, raw entity.RawImage) (entity.EncodedPayload, error)
}
