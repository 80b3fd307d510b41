package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"plant-id/internal/domain/contract"
	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
	"plant-id/internal/platform/logging"
)

func testRequest(t *testing.T) entity.IdentificationRequest {
	t.Helper()
	req, err := contract.BuildRequest("", entity.EncodedPayload{
		MediaType: entity.MediaTypeJPEG,
		Data:      []byte{0xFF, 0xD8, 0xFF},
	})
	require.NoError(t, err)
	return req
}

func candidates(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL + "/"}, logging.Discard())
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{APIKey: "  "}, logging.Discard())
	require.True(t, apperrors.IsKind(err, apperrors.KindConfig))
}

func TestInfer_Success(t *testing.T) {
	want := `{"category":"PLANT","name":"玫瑰","description":"..."}`
	var gotPath, gotBody string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, candidates(want))
	})

	text, err := c.Infer(context.Background(), testRequest(t))
	require.NoError(t, err)
	require.Equal(t, want, text)

	require.True(t, strings.HasSuffix(gotPath, contract.DefaultModel+":generateContent"), gotPath)
	require.Contains(t, gotBody, "inlineData")
	require.Contains(t, gotBody, "responseSchema")
	require.Contains(t, gotBody, "application/json")
}

func TestInfer_EmptyText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, candidates(""))
	})

	_, err := c.Infer(context.Background(), testRequest(t))
	require.True(t, apperrors.IsKind(err, apperrors.KindEmptyResponse), "got %v", err)
}

func TestInfer_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad image","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := c.Infer(context.Background(), testRequest(t))
	require.True(t, apperrors.IsKind(err, apperrors.KindTransport), "got %v", err)
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(contract.ResponseSchema())

	require.Equal(t, genai.TypeObject, s.Type)
	require.Equal(t, []string{"category", "name", "description"}, s.Required)
	require.Equal(t, []string{"PLANT", "PERSON", "OTHER"}, s.Properties["category"].Enum)
	require.Equal(t, genai.TypeArray, s.Properties["careTips"].Type)
	require.Equal(t, genai.TypeString, s.Properties["careTips"].Items.Type)
	require.Len(t, s.PropertyOrdering, 6)
}
