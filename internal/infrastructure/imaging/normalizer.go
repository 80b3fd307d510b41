package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"math"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

const (
	DefaultMaxDimension = 1024
	DefaultQuality      = 0.7
	// DefaultMaxPixels защищает от «бомб» с огромными размерами в заголовке.
	DefaultMaxPixels = 80_000_000
)

// Normalizer приводит любое изображение к JPEG с ограниченной длинной стороной.
type Normalizer struct {
	MaxDimension int
	Quality      float64
	MaxPixels    int64
	Scaler       Scaler

	logger *slog.Logger
}

// NewNormalizer создаёт нормализатор. Нулевые параметры заменяются значениями
// по умолчанию, nil scaler заменяется на DrawScaler.
func NewNormalizer(maxDimension int, quality float64, scaler Scaler, logger *slog.Logger) *Normalizer {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 1 {
		quality = DefaultQuality
	}
	if scaler == nil {
		scaler = NewDrawScaler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		MaxDimension: maxDimension,
		Quality:      quality,
		MaxPixels:    DefaultMaxPixels,
		Scaler:       scaler,
		logger:       logger,
	}
}

// Normalize декодирует raw, при необходимости уменьшает, поворачивает по EXIF
// и всегда перекодирует в JPEG.
func (n *Normalizer) Normalize(ctx context.Context, raw entity.RawImage) (entity.EncodedPayload, error) {
	const op = "imaging.normalize"

	if err := ctx.Err(); err != nil {
		return entity.EncodedPayload{}, err
	}
	if len(raw.Data) == 0 {
		return entity.EncodedPayload{}, apperrors.New(apperrors.KindDecode, op, "image is empty")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return entity.EncodedPayload{}, apperrors.Wrap(apperrors.KindDecode, op, "unsupported or corrupt image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return entity.EncodedPayload{}, apperrors.New(apperrors.KindDecode, op, "image has no pixels")
	}
	if n.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > n.MaxPixels {
		return entity.EncodedPayload{}, apperrors.New(apperrors.KindDecode, op,
			fmt.Sprintf("image is too large: %dx%d", cfg.Width, cfg.Height))
	}

	src, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return entity.EncodedPayload{}, apperrors.Wrap(apperrors.KindDecode, op, "unsupported or corrupt image", err)
	}

	orientation := readOrientation(raw.Data)
	srcW, srcH := src.Bounds().Dx(), src.Bounds().Dy()
	dstW, dstH := TargetSize(srcW, srcH, n.MaxDimension)

	scaled := src
	if dstW != srcW || dstH != srcH {
		scaled, err = n.Scaler.Scale(src, dstW, dstH)
		if err != nil {
			return entity.EncodedPayload{}, fmt.Errorf("%s: scale: %w", op, err)
		}
	}

	out := applyOrientation(flatten(scaled), orientation)

	if err := ctx.Err(); err != nil {
		return entity.EncodedPayload{}, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality(n.Quality)}); err != nil {
		return entity.EncodedPayload{}, fmt.Errorf("%s: encode jpeg: %w", op, err)
	}

	b := out.Bounds()
	n.logger.Debug("image normalized",
		"source", raw.Name,
		"format", format,
		"orientation", orientation,
		"src_width", srcW,
		"src_height", srcH,
		"width", b.Dx(),
		"height", b.Dy(),
		"bytes_in", len(raw.Data),
		"bytes_out", buf.Len(),
	)

	return entity.EncodedPayload{
		MediaType: entity.MediaTypeJPEG,
		Data:      buf.Bytes(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// TargetSize вычисляет размеры после уменьшения. Картинки, которые уже
// помещаются в maxDimension, не увеличиваются.
func TargetSize(width, height, maxDimension int) (int, int) {
	longest := max(width, height)
	if maxDimension <= 0 || longest <= maxDimension {
		return width, height
	}

	scale := float64(maxDimension) / float64(longest)
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return max(w, 1), max(h, 1)
}

// flatten копирует изображение в RGBA с началом в (0,0), подкладывая белый фон
// под прозрачные пиксели: в JPEG нет альфа-канала.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	return min(max(v, 1), 100)
}
