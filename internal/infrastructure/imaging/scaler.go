package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Scaler меняет размер изображения.
type Scaler interface {
	Scale(src image.Image, width, height int) (image.Image, error)
}

const (
	ScalerDraw = "xdraw"
	ScalerGoCV = "gocv"
)

// NewScaler выбирает реализацию по имени из конфигурации.
func NewScaler(name string) (Scaler, error) {
	switch name {
	case "", ScalerDraw:
		return NewDrawScaler(), nil
	case ScalerGoCV:
		s, err := NewGoCVScaler()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown image scaler %q", name)
	}
}

// DrawScaler масштабирование на чистом Go через golang.org/x/image/draw.
type DrawScaler struct {
	Interpolator draw.Interpolator
}

// NewDrawScaler создаёт scaler с интерполяцией Catmull-Rom.
func NewDrawScaler() *DrawScaler {
	return &DrawScaler{Interpolator: draw.CatmullRom}
}

// Scale рисует src в новый RGBA-буфер размером width×height.
func (s *DrawScaler) Scale(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	s.Interpolator.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
