package openaicompat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

const schemaName = "identification_result"

// Config параметры OpenAI-совместимого сервиса.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client прямой клиент для OpenAI-совместимых мультимодальных моделей.
type Client struct {
	client *openai.Client
	logger *slog.Logger
}

// NewClient создаёт клиента. Без ключа сразу возвращает KindConfig.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.New(apperrors.KindConfig, "openai.new", "API_KEY is missing")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

// Infer отправляет один запрос chat completions со схемой ответа.
func (c *Client) Infer(ctx context.Context, req entity.IdentificationRequest) (string, error) {
	const op = "openai.infer"

	message := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: req.Payload.DataURL(),
				},
			},
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
		},
	}

	request := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: []openai.ChatCompletionMessage{message},
	}
	if req.Schema != nil {
		def := toDefinition(req.Schema)
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &def,
			},
		}
	}

	c.logger.Debug("openai request", "model", req.Model, "image_bytes", len(req.Payload.Data))

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", classify(op, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperrors.New(apperrors.KindEmptyResponse, op, "no response text from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(op string, err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apperrors.Wrap(apperrors.KindConfig, op, "credential rejected by service", err)
	}
	return apperrors.Wrap(apperrors.KindTransport, op, "chat completion", err)
}

func toDefinition(s *entity.Schema) jsonschema.Definition {
	def := jsonschema.Definition{
		Type:        dataType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if s.Items != nil {
		items := toDefinition(s.Items)
		def.Items = &items
	}
	if len(s.Properties) > 0 {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			def.Properties[name] = toDefinition(prop)
		}
	}
	return def
}

func dataType(t entity.SchemaType) jsonschema.DataType {
	switch t {
	case entity.SchemaObject:
		return jsonschema.Object
	case entity.SchemaArray:
		return jsonschema.Array
	default:
		return jsonschema.String
	}
}
