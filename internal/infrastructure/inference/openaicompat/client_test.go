package openaicompat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"plant-id/internal/domain/contract"
	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
	"plant-id/internal/platform/logging"
)

func testRequest(t *testing.T) entity.IdentificationRequest {
	t.Helper()
	req, err := contract.BuildRequest("gpt-4o-mini", entity.EncodedPayload{
		MediaType: entity.MediaTypeJPEG,
		Data:      []byte("jpeg"),
	})
	require.NoError(t, err)
	return req
}

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, logging.Discard())
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(Config{}, logging.Discard())
	require.True(t, apperrors.IsKind(err, apperrors.KindConfig))
}

func TestInfer_SendsImageAndSchema(t *testing.T) {
	want := `{"category":"OTHER","name":"杯子","description":"一个杯子"}`
	var (
		got       map[string]any
		gotPath   string
		gotAuth   string
		decodeErr error
	)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		decodeErr = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion(want))
	})

	text, err := c.Infer(context.Background(), testRequest(t))
	require.NoError(t, err)
	require.Equal(t, want, text)

	require.NoError(t, decodeErr)
	require.Equal(t, "/v1/chat/completions", gotPath)
	require.Equal(t, "Bearer sk-test", gotAuth)

	require.Equal(t, "gpt-4o-mini", got["model"])

	format := got["response_format"].(map[string]any)
	require.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)["schema"].(map[string]any)
	require.ElementsMatch(t, []any{"category", "name", "description"}, schema["required"])

	messages := got["messages"].([]any)
	parts := messages[0].(map[string]any)["content"].([]any)
	imagePart := parts[0].(map[string]any)
	require.Equal(t, "image_url", imagePart["type"])
	require.Equal(t, "data:image/jpeg;base64,anBlZw==", imagePart["image_url"].(map[string]any)["url"])
}

func TestInfer_EmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion("   "))
	})

	_, err := c.Infer(context.Background(), testRequest(t))
	require.True(t, apperrors.IsKind(err, apperrors.KindEmptyResponse), "got %v", err)
}

func TestInfer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   apperrors.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, apperrors.KindConfig},
		{"forbidden", http.StatusForbidden, apperrors.KindConfig},
		{"bad request", http.StatusBadRequest, apperrors.KindTransport},
		{"server error", http.StatusInternalServerError, apperrors.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			})

			_, err := c.Infer(context.Background(), testRequest(t))
			require.True(t, apperrors.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestInfer_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: url}, logging.Discard())
	require.NoError(t, err)

	_, err = c.Infer(context.Background(), testRequest(t))
	require.True(t, apperrors.IsKind(err, apperrors.KindTransport), "got %v", err)
}
