package speech

import (
	"context"
	"io"
	"time"
)

// STTRequest 代表一次转写请求.
type STTRequest struct {
	Audio    io.Reader `json:"-"`
	Filename string    `json:"filename,omitempty"`
	Model    string    `json:"model,omitempty"`
	Language string    `json:"language,omitempty"` // ISO-639-1 code，空表示自动检测
	Prompt   string    `json:"prompt,omitempty"`
}

// STTResponse 代表转写结果.
type STTResponse struct {
	Provider            string    `json:"provider"`
	Model               string    `json:"model"`
	Text                string    `json:"text"`
	Language            string    `json:"language,omitempty"`
	LanguageProbability float64   `json:"language_probability,omitempty"`
	Duration            float64   `json:"duration,omitempty"` // 秒
	Segments            []Segment `json:"segments"`
	CreatedAt           time.Time `json:"created_at"`
}

// Segment 代表转录片段，起止时间以秒计.
// Confidence 为模型的平均对数概率（avg_logprob），越接近 0 越可信.
type Segment struct {
	ID         int     `json:"id"`
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Transcriber 定义了 STT 提供者接口.
type Transcriber interface {
	// Transcribe 将语音转换为文本
	Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error)

	// Name 返回提供者名称
	Name() string
}
