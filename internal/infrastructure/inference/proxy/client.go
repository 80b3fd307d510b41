package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"plant-id/internal/domain/contract"
	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

// Client ходит в модель через прокси-эндпоинт. Ключей на стороне клиента нет.
type Client struct {
	rest   *resty.Client
	logger *slog.Logger
}

// NewClient создаёт клиента прокси. baseURL: адрес сервера без /api/identify.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, apperrors.New(apperrors.KindConfig, "proxy.new", "PROXY_URL is missing")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var rest *resty.Client
	if httpClient != nil {
		rest = resty.NewWithClient(httpClient)
	} else {
		rest = resty.New()
	}
	rest.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{rest: rest, logger: logger}, nil
}

// Infer отправляет картинку на прокси и возвращает тело ответа как есть.
// Модель и схему выбирает прокси, поэтому из запроса берётся только картинка.
func (c *Client) Infer(ctx context.Context, req entity.IdentificationRequest) (string, error) {
	const op = "proxy.infer"

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(contract.IdentifyRequest{Image: req.Payload.DataURL()}).
		Post(contract.IdentifyPath)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindTransport, op, "request failed", err)
	}

	c.logger.Debug("proxy response", "status", resp.StatusCode(), "bytes", len(resp.Body()))

	if !resp.IsSuccess() {
		return "", apperrors.New(apperrors.KindTransport, op, errorDetail(resp))
	}

	body := resp.String()
	if strings.TrimSpace(body) == "" {
		return "", apperrors.New(apperrors.KindEmptyResponse, op, "proxy returned empty body")
	}
	return body, nil
}

func errorDetail(resp *resty.Response) string {
	var body contract.ErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		if body.Details != "" {
			return fmt.Sprintf("status %d: %s: %s", resp.StatusCode(), body.Error, body.Details)
		}
		return fmt.Sprintf("status %d: %s", resp.StatusCode(), body.Error)
	}
	return fmt.Sprintf("status %d", resp.StatusCode())
}
