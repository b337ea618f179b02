package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/a11yoverlay/internal/tlsutil"
	"github.com/BaSui01/a11yoverlay/llm/providers"
	"github.com/BaSui01/a11yoverlay/types"
)

// WhisperProvider 调用 OpenAI 兼容的转写端点.
type WhisperProvider struct {
	cfg    WhisperConfig
	client *http.Client
}

// NewWhisperProvider 创建新的 Whisper STT 提供者.
func NewWhisperProvider(cfg WhisperConfig) *WhisperProvider {
	def := DefaultWhisperConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	return &WhisperProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
	}
}

func (p *WhisperProvider) Name() string { return "whisper" }

type whisperResponse struct {
	Text                string  `json:"text"`
	Language            string  `json:"language,omitempty"`
	LanguageProbability float64 `json:"language_probability,omitempty"`
	Duration            float64 `json:"duration,omitempty"`
	Segments            []struct {
		ID         int     `json:"id"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		Text       string  `json:"text"`
		AvgLogprob float64 `json:"avg_logprob,omitempty"`
	} `json:"segments,omitempty"`
}

// Transcribe 将语音转换为文本.
func (p *WhisperProvider) Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error) {
	if req == nil || req.Audio == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "audio input is required").WithHTTPStatus(http.StatusBadRequest)
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	filename := req.Filename
	if filename == "" {
		filename = "audio.wav"
	}

	// 构建多部分形式
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	n, err := io.Copy(part, req.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to copy audio: %w", err)
	}
	if n == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "audio input is empty").WithHTTPStatus(http.StatusBadRequest)
	}

	_ = writer.WriteField("model", model)
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	if req.Prompt != "" {
		_ = writer.WriteField("prompt", req.Prompt)
	}
	_ = writer.WriteField("response_format", "verbose_json")
	_ = writer.WriteField("timestamp_granularities[]", "segment")
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/audio/transcriptions",
		&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrTranscription, "whisper request failed").
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, types.NewError(types.ErrTranscription, fmt.Sprintf("whisper error: status=%d msg=%s", resp.StatusCode, msg)).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(resp.StatusCode >= 500).
			WithProvider(p.Name())
	}

	var wResp whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wResp); err != nil {
		return nil, types.NewError(types.ErrTranscription, "failed to decode whisper response").
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithProvider(p.Name())
	}

	return toResponse(p.Name(), model, &wResp), nil
}

// toResponse 标准化结果；存在片段时以片段拼接全文
func toResponse(provider, model string, w *whisperResponse) *STTResponse {
	result := &STTResponse{
		Provider:            provider,
		Model:               model,
		Text:                strings.TrimSpace(w.Text),
		Language:            w.Language,
		LanguageProbability: w.LanguageProbability,
		Duration:            w.Duration,
		Segments:            make([]Segment, 0, len(w.Segments)),
		CreatedAt:           time.Now(),
	}

	if len(w.Segments) == 0 {
		return result
	}

	texts := make([]string, 0, len(w.Segments))
	for _, s := range w.Segments {
		result.Segments = append(result.Segments, Segment{
			ID:         s.ID,
			Text:       s.Text,
			Start:      s.Start,
			End:        s.End,
			Confidence: s.AvgLogprob,
		})
		texts = append(texts, s.Text)
	}
	result.Text = strings.TrimSpace(strings.Join(texts, " "))
	return result
}
