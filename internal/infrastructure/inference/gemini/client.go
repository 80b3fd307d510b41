package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

// Config параметры прямого доступа к Gemini.
type Config struct {
	APIKey     string
	BaseURL    string // пусто: адрес по умолчанию
	HTTPClient *http.Client
}

// Client прямой клиент Gemini: держит ключ и сам ходит в сервис.
type Client struct {
	client *genai.Client
	logger *slog.Logger
}

// NewClient создаёт клиента. Без ключа сразу возвращает KindConfig.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	const op = "gemini.new"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.New(apperrors.KindConfig, op, "API_KEY is missing")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, op, "create genai client", err)
	}

	return &Client{client: client, logger: logger}, nil
}

// Infer отправляет картинку и инструкцию одним запросом, без повторов.
func (c *Client) Infer(ctx context.Context, req entity.IdentificationRequest) (string, error) {
	const op = "gemini.infer"

	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Payload.Data, req.Payload.MediaType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.Schema),
	}

	c.logger.Debug("gemini request", "model", req.Model, "image_bytes", len(req.Payload.Data))

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", classify(op, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", apperrors.New(apperrors.KindEmptyResponse, op, "no response text from model")
	}
	return text, nil
}

func classify(op string, err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return apperrors.Wrap(apperrors.KindConfig, op, "credential rejected by service", err)
	}
	return apperrors.Wrap(apperrors.KindTransport, op, "generate content", err)
}

func toGenaiSchema(s *entity.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Enum) > 0 {
		out.Enum = s.Enum
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
		out.PropertyOrdering = s.PropertyOrder
	}
	return out
}

func schemaType(t entity.SchemaType) genai.Type {
	switch t {
	case entity.SchemaObject:
		return genai.TypeObject
	case entity.SchemaArray:
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
