package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"plant-id/internal/domain/contract"
	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

// HealthPath проверка живости прокси.
const HealthPath = "/api/health"

const msgIdentificationFailed = "Identification failed"

// Identifier часть сервиса распознавания, которая нужна прокси.
// Изображение приходит уже нормализованным, поэтому нормализации здесь нет.
type Identifier interface {
	Ready() error
	IdentifyPayload(ctx context.Context, payload entity.EncodedPayload) (entity.Identification, error)
}

type handler struct {
	identifier Identifier
	logger     *slog.Logger
}

// identify: метод → тело → конфигурация → изображение → модель.
func (h *handler) identify(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, contract.ErrorBody{Error: "Method not allowed"})
		return
	}

	var req contract.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, contract.ErrorBody{Error: "Request body is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, contract.ErrorBody{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		c.JSON(http.StatusBadRequest, contract.ErrorBody{Error: "No image data provided"})
		return
	}

	if err := h.identifier.Ready(); err != nil {
		c.JSON(http.StatusInternalServerError, contract.ErrorBody{
			Error:   "Server configuration error",
			Details: errorDetails(err),
		})
		return
	}

	payload, err := decodeImage(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, contract.ErrorBody{Error: "Invalid image data", Details: err.Error()})
		return
	}

	result, err := h.identifier.IdentifyPayload(c.Request.Context(), payload)
	if err != nil {
		h.logger.Warn("identification failed",
			"request_id", c.GetString(requestIDKey),
			"kind", apperrors.KindOf(err),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, contract.ErrorBody{
			Error:   msgIdentificationFailed,
			Details: errorDetails(err),
		})
		return
	}

	c.JSON(http.StatusOK, entity.Document(result))
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"configured": h.identifier.Ready() == nil,
	})
}

// decodeImage принимает чистый base64 или data URL.
func decodeImage(image string) (entity.EncodedPayload, error) {
	mediaType, data := entity.SplitDataURL(image)
	if mediaType == "" {
		mediaType = entity.MediaTypeJPEG
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(data)
	}
	if err != nil {
		return entity.EncodedPayload{}, apperrors.Wrap(apperrors.KindBadRequest, "httpapi.decode_image", "image is not valid base64", err)
	}
	if len(raw) == 0 {
		return entity.EncodedPayload{}, apperrors.New(apperrors.KindBadRequest, "httpapi.decode_image", "image is empty")
	}

	return entity.EncodedPayload{MediaType: mediaType, Data: raw}, nil
}

func errorDetails(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Message + ": " + appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
