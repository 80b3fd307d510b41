package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
	"plant-id/internal/platform/logging"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultMaxDimension, DefaultQuality, nil, logging.Discard())
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func decodedFormat(t *testing.T, data []byte) (image.Config, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg, format
}

func TestNormalize_SmallImageKeepsSize(t *testing.T) {
	n := newTestNormalizer()
	raw := entity.RawImage{Data: encodePNG(t, gradient(640, 480)), Name: "small.png"}

	payload, err := n.Normalize(context.Background(), raw)
	require.NoError(t, err)

	require.Equal(t, entity.MediaTypeJPEG, payload.MediaType)
	require.Equal(t, 640, payload.Width)
	require.Equal(t, 480, payload.Height)

	cfg, format := decodedFormat(t, payload.Data)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 640, cfg.Width)
	require.Equal(t, 480, cfg.Height)
}

func TestNormalize_LargeImageIsBounded(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"landscape 4000x3000", 4000, 3000},
		{"portrait 3000x4000", 3000, 4000},
		{"odd ratio 1500x1001", 1500, 1001},
		{"panorama 5000x300", 5000, 300},
		{"exactly max", 1024, 700},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			raw := entity.RawImage{Data: encodeJPEG(t, img)}

			payload, err := n.Normalize(context.Background(), raw)
			require.NoError(t, err)

			longest := max(payload.Width, payload.Height)
			require.InDelta(t, DefaultMaxDimension, longest, 1)

			inRatio := float64(tt.width) / float64(tt.height)
			outRatio := float64(payload.Width) / float64(payload.Height)
			require.Less(t, math.Abs(outRatio-inRatio)/inRatio, 0.01)

			cfg, format := decodedFormat(t, payload.Data)
			require.Equal(t, "jpeg", format)
			require.Equal(t, payload.Width, cfg.Width)
			require.Equal(t, payload.Height, cfg.Height)
		})
	}
}

func TestNormalize_IdempotentDimensions(t *testing.T) {
	n := newTestNormalizer()
	raw := entity.RawImage{Data: encodePNG(t, gradient(2000, 1300))}

	first, err := n.Normalize(context.Background(), raw)
	require.NoError(t, err)

	second, err := n.Normalize(context.Background(), entity.RawImage{Data: first.Data})
	require.NoError(t, err)

	require.Equal(t, first.Width, second.Width)
	require.Equal(t, first.Height, second.Height)
}

func TestNormalize_GIFBecomesJPEG(t *testing.T) {
	palette := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, 32, 16), palette)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	payload, err := newTestNormalizer().Normalize(context.Background(), entity.RawImage{Data: buf.Bytes()})
	require.NoError(t, err)

	_, format := decodedFormat(t, payload.Data)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 32, payload.Width)
	require.Equal(t, 16, payload.Height)
}

func TestNormalize_TransparentBecomesWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	payload, err := newTestNormalizer().Normalize(context.Background(), entity.RawImage{Data: encodePNG(t, img)})
	require.NoError(t, err)

	out, err := jpeg.Decode(bytes.NewReader(payload.Data))
	require.NoError(t, err)
	r, g, b, _ := out.At(8, 8).RGBA()
	require.Greater(t, r>>8, uint32(240))
	require.Greater(t, g>>8, uint32(240))
	require.Greater(t, b>>8, uint32(240))
}

func TestNormalize_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"zero bytes", []byte{}},
		{"text", []byte("definitely not an image")},
		{"truncated png", encodePNG(t, gradient(64, 64))[:40]},
		{"heic", append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypheic\x00\x00\x00\x00mif1heic")...)},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := n.Normalize(context.Background(), entity.RawImage{Data: tt.data})
			require.Error(t, err)
			require.True(t, apperrors.IsKind(err, apperrors.KindDecode), "got %v", err)
			require.True(t, payload.Empty())
		})
	}
}

func TestNormalize_TooManyPixels(t *testing.T) {
	n := newTestNormalizer()
	n.MaxPixels = 100

	_, err := n.Normalize(context.Background(), entity.RawImage{Data: encodePNG(t, gradient(20, 20))})
	require.True(t, apperrors.IsKind(err, apperrors.KindDecode))
}

func TestNormalize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestNormalizer().Normalize(ctx, entity.RawImage{Data: encodePNG(t, gradient(8, 8))})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalize_ExifOrientation(t *testing.T) {
	data := withOrientation(encodeJPEG(t, gradient(200, 100)), 6)
	require.Equal(t, 6, readOrientation(data))

	payload, err := newTestNormalizer().Normalize(context.Background(), entity.RawImage{Data: data})
	require.NoError(t, err)
	require.Equal(t, 100, payload.Width)
	require.Equal(t, 200, payload.Height)
}

func TestReadOrientation_NoExif(t *testing.T) {
	require.Equal(t, 1, readOrientation(encodePNG(t, gradient(4, 4))))
	require.Equal(t, 1, readOrientation([]byte("garbage")))
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{640, 480, 1024, 640, 480},
		{1024, 1024, 1024, 1024, 1024},
		{4000, 3000, 1024, 1024, 768},
		{3000, 4000, 1024, 768, 1024},
		{1500, 1001, 1024, 1024, 683},
		{10000, 1, 1024, 1024, 1},
	}

	for _, tt := range tests {
		w, h := TargetSize(tt.w, tt.h, tt.max)
		require.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		require.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}

func TestApplyOrientation(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, blue)

	tests := []struct {
		orientation int
		w, h        int
		redAt       image.Point
		blueAt      image.Point
	}{
		{1, 2, 1, image.Pt(0, 0), image.Pt(1, 0)},
		{2, 2, 1, image.Pt(1, 0), image.Pt(0, 0)},
		{3, 2, 1, image.Pt(1, 0), image.Pt(0, 0)},
		{4, 2, 1, image.Pt(0, 0), image.Pt(1, 0)},
		{5, 1, 2, image.Pt(0, 0), image.Pt(0, 1)},
		{6, 1, 2, image.Pt(0, 0), image.Pt(0, 1)},
		{7, 1, 2, image.Pt(0, 1), image.Pt(0, 0)},
		{8, 1, 2, image.Pt(0, 1), image.Pt(0, 0)},
	}

	for _, tt := range tests {
		out := applyOrientation(src, tt.orientation)
		require.Equal(t, tt.w, out.Bounds().Dx(), "orientation %d", tt.orientation)
		require.Equal(t, tt.h, out.Bounds().Dy(), "orientation %d", tt.orientation)
		require.Equal(t, red, out.RGBAAt(tt.redAt.X, tt.redAt.Y), "orientation %d", tt.orientation)
		require.Equal(t, blue, out.RGBAAt(tt.blueAt.X, tt.blueAt.Y), "orientation %d", tt.orientation)
	}
}

func TestNewScaler(t *testing.T) {
	s, err := NewScaler("")
	require.NoError(t, err)
	require.IsType(t, &DrawScaler{}, s)

	_, err = NewScaler("bicubic-magic")
	require.Error(t, err)
}

// withOrientation вставляет сразу после SOI сегмент APP1 с единственным
// тегом Orientation.
func withOrientation(jpg []byte, orientation byte) []byte {
	tiff := []byte{
		'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00, // заголовок, IFD0 по смещению 8
		0x01, 0x00, // одна запись
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, orientation, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // следующего IFD нет
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	size := len(payload) + 2

	out := make([]byte, 0, len(jpg)+size+2)
	out = append(out, jpg[:2]...)
	out = append(out, 0xFF, 0xE1, byte(size>>8), byte(size))
	out = append(out, payload...)
	out = append(out, jpg[2:]...)
	return out
}
