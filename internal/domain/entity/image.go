package entity

import (
	"encoding/base64"
	"strings"
)

// MediaTypeJPEG единственный формат, который отдаёт нормализатор.
const MediaTypeJPEG = "image/jpeg"

// RawImage исходные байты изображения в неизвестном формате.
type RawImage struct {
	Data []byte
	Name string // имя файла или источник, только для логов
}

// EncodedPayload нормализованное изображение, готовое к отправке модели.
type EncodedPayload struct {
	MediaType string
	Data      []byte
	Width     int
	Height    int
}

// Base64 возвращает данные в base64 без префикса.
func (p EncodedPayload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// DataURL возвращает данные в виде data:<media>;base64,<...>.
func (p EncodedPayload) DataURL() string {
	return "data:" + p.mediaType() + ";base64," + p.Base64()
}

// Empty сообщает, что полезной нагрузки нет.
func (p EncodedPayload) Empty() bool {
	return len(p.Data) == 0
}

func (p EncodedPayload) mediaType() string {
	if p.MediaType == "" {
		return MediaTypeJPEG
	}
	return p.MediaType
}

// SplitDataURL отделяет префикс data URL от base64-данных.
// Для строки без префикса возвращает mediaType "" и исходную строку.
func SplitDataURL(s string) (mediaType, data string) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, "base64,")
	if idx < 0 {
		return "", s
	}

	header := s[:idx]
	data = s[idx+len("base64,"):]
	if strings.HasPrefix(header, "data:") {
		mediaType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";")
	}
	return mediaType, data
}
