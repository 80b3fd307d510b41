//go:build !gocv
// +build !gocv

package imaging

import (
	"errors"
	"image"
)

// GoCVScaler заглушка для сборки без OpenCV.
type GoCVScaler struct{}

// NewGoCVScaler возвращает ошибку, если сборка без тега gocv.
func NewGoCVScaler() (*GoCVScaler, error) {
	return nil, errors.New("gocv build tag is not enabled")
}

// Scale возвращает ошибку, если сборка без тега gocv.
func (s *GoCVScaler) Scale(src image.Image, width, height int) (image.Image, error) {
	_ = src
	_ = width
	_ = height
	return nil, errors.New("gocv build tag is not enabled")
}
