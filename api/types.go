package api

import (
	"time"

	"github.com/BaSui01/a11yoverlay/types"
)

// =============================================================================
// 页面分析类型
// =============================================================================

// AnalyzePageResponse 表示 multipart 截图分析的响应。
// @Description 页面分析响应结构
type AnalyzePageResponse struct {
	// 会话 ID，后续 interpret-command 使用
	SessionID string `json:"session_id" example:"2b1c0a8e-7d0e-4a3c-9a57-1f1d8c1b9e55"`
	// 分析结果
	Analysis *types.PageAnalysis `json:"analysis"`
	// 上传截图的元信息
	ImageInfo *types.ImageInfo `json:"image_info"`
	// 请求中的元素数量
	ElementsCount int `json:"elements_count" example:"12"`
	// 为 true 表示结果来自备用分析器
	Fallback bool `json:"fallback,omitempty"`
	// 响应时间戳
	Timestamp time.Time `json:"timestamp"`
}

// AnalyzePageBase64Response 表示 base64 截图分析的响应。
// @Description base64 页面分析响应结构
type AnalyzePageBase64Response struct {
	SessionID     string              `json:"session_id"`
	Analysis      *types.PageAnalysis `json:"analysis"`
	ElementsCount int                 `json:"elements_count"`
	Fallback      bool                `json:"fallback,omitempty"`
}

// =============================================================================
// 命令解释类型
// =============================================================================

// InterpretCommandResponse 命令解释响应。
// 未选中动作时 ActionDetails 为空，ClarificationQuestion 非空。
// @Description 命令解释响应结构
type InterpretCommandResponse struct {
	types.CommandMatch
	// 被选中动作的完整信息
	ActionDetails *types.Action `json:"action_details,omitempty"`
	// 匹配策略：model / keyword / clarify
	Strategy string `json:"strategy" example:"model"`
}

// =============================================================================
// 会话类型
// =============================================================================

// SessionResponse 会话查询响应
type SessionResponse struct {
	SessionID     string              `json:"session_id"`
	Analysis      *types.PageAnalysis `json:"analysis"`
	ElementsCount int                 `json:"elements_count"`
	ImageInfo     *types.ImageInfo    `json:"image_info,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// SessionDeleteResponse 会话删除响应
type SessionDeleteResponse struct {
	SessionID string `json:"session_id"`
	Deleted   bool   `json:"deleted"`
}

// =============================================================================
// 语音转写类型
// =============================================================================

// FileInfo 上传音频的元信息
type FileInfo struct {
	Filename    string `json:"filename"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
}

// TranscribeResponse 语音转写响应
// @Description 语音转写响应结构
type TranscribeResponse struct {
	Text                string           `json:"text"`
	Language            string           `json:"language,omitempty"`
	LanguageProbability float64          `json:"language_probability,omitempty"`
	Duration            float64          `json:"duration,omitempty"`
	Segments            []SegmentPayload `json:"segments"`
	FileInfo            *FileInfo        `json:"file_info,omitempty"`
}

// SegmentPayload 转写片段
type SegmentPayload struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// StreamMessage WebSocket 流式转写时服务端发送的消息。
// Type 为 transcription 或 error。
type StreamMessage struct {
	Type                string           `json:"type"`
	Text                string           `json:"text,omitempty"`
	Language            string           `json:"language,omitempty"`
	LanguageProbability float64          `json:"language_probability,omitempty"`
	Segments            []SegmentPayload `json:"segments,omitempty"`
	Error               string           `json:"error,omitempty"`
}

// =============================================================================
// 健康检查类型
// =============================================================================

// ServiceHealthResponse /health 响应
type ServiceHealthResponse struct {
	// healthy 或 degraded
	Status          string    `json:"status" example:"healthy"`
	OllamaConnected bool      `json:"ollama_connected"`
	OllamaModel     string    `json:"ollama_model" example:"qwen2.5vl:7b"`
	ModelBackend    string    `json:"model_backend,omitempty" example:"ollama"`
	ActiveSessions  *int      `json:"active_sessions,omitempty" example:"3"`
	Timestamp       time.Time `json:"timestamp"`
}

// RootResponse / 响应
type RootResponse struct {
	Message string `json:"message"`
}
