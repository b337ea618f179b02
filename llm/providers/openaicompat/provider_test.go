package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/llm"
	"github.com/BaSui01/a11yoverlay/types"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{BaseURL: srv.URL, Model: "qwen2.5vl:7b", Timeout: 2 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "qwen2.5vl:7b",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
	}
}

func TestAPIBase(t *testing.T) {
	assert.Equal(t, "http://x:1/v1", apiBase("http://x:1"))
	assert.Equal(t, "http://x:1/v1", apiBase("http://x:1/"))
	assert.Equal(t, "http://x:1/v1", apiBase("http://x:1/v1"))
}

func TestVision_SendsImagePart(t *testing.T) {
	var body map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(`{"actions":[]}`))
	})

	resp, err := p.Vision(context.Background(), &llm.VisionRequest{
		Prompt:      "analyze",
		ImageBase64: "QUJD",
		Options:     llm.Options{Temperature: 0.3, NumPredict: 1000},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"actions":[]}`, resp.Content)

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", img["url"])
	assert.EqualValues(t, 1000, body["max_tokens"])
}

func TestGenerate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("hello"))
	})

	resp, err := p.Generate(context.Background(), &llm.GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "openai", resp.Provider)
}

func TestComplete_ErrorStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"loading model","type":"server_error"}}`))
	})

	_, err := p.Generate(context.Background(), &llm.GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrModelTransport))
	assert.True(t, types.IsRetryable(err))
}

func TestComplete_NoChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := p.Generate(context.Background(), &llm.GenerateRequest{Prompt: "hi"})
	assert.True(t, types.IsErrorCode(err, types.ErrModelFormat))
}

func TestHealthCheck(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"qwen2.5vl:7b","object":"model"}]}`))
	})

	st, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Healthy)
	assert.True(t, st.ModelAvailable)
}
