package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/api"
	"github.com/BaSui01/a11yoverlay/llm/speech"
	"github.com/BaSui01/a11yoverlay/types"
)

// finalMessage 客户端发送该文本消息后转写已累积音频
const finalMessage = "final"

// DefaultMaxStreamBytes 单次流式转写累积音频的默认上限
const DefaultMaxStreamBytes = 10 << 20

// =============================================================================
// 🎙️ 语音转写 Handler
// =============================================================================

// TranscribeHandler 语音转写处理器
type TranscribeHandler struct {
	transcriber    speech.Transcriber
	maxUploadBytes int64
	maxStreamBytes int
	originPatterns []string
	logger         *zap.Logger
}

// TranscribeOption 配置 TranscribeHandler
type TranscribeOption func(*TranscribeHandler)

// WithMaxUploadBytes 设置上传音频大小上限
func WithMaxUploadBytes(n int64) TranscribeOption {
	return func(h *TranscribeHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithMaxStreamBytes 设置流式累积音频上限
func WithMaxStreamBytes(n int) TranscribeOption {
	return func(h *TranscribeHandler) {
		if n > 0 {
			h.maxStreamBytes = n
		}
	}
}

// WithOriginPatterns 设置 WebSocket 允许的跨域来源（host 模式，如 "*.example.com"）
func WithOriginPatterns(patterns ...string) TranscribeOption {
	return func(h *TranscribeHandler) {
		h.originPatterns = append(h.originPatterns, patterns...)
	}
}

// NewTranscribeHandler 创建转写处理器，transcriber 为 nil 时端点返回 503
func NewTranscribeHandler(t speech.Transcriber, logger *zap.Logger, opts ...TranscribeOption) *TranscribeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &TranscribeHandler{
		transcriber:    t,
		maxUploadBytes: DefaultMaxUploadBytes,
		maxStreamBytes: DefaultMaxStreamBytes,
		logger:         logger.With(zap.String("component", "transcribe_handler")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleTranscribe 处理音频文件上传转写
// @Summary 语音转写
// @Tags 语音
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "音频文件"
// @Param language formData string false "ISO-639-1 语言代码"
// @Success 200 {object} api.TranscribeResponse "转写结果"
// @Failure 502 {object} Response "转写失败"
// @Security ApiKeyAuth
// @Router /api/transcribe [post]
func (h *TranscribeHandler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil {
		WriteError(w, disabledError(), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteErr(w, err, h.logger)
			return
		}
		WriteError(w, types.NewInvalidRequestError("invalid multipart body").WithCause(err), h.logger)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		WriteError(w, types.NewInvalidRequestError("audio file is required"), h.logger)
		return
	}
	defer file.Close()

	resp, err := h.transcriber.Transcribe(r.Context(), &speech.STTRequest{
		Audio:    file,
		Filename: header.Filename,
		Language: strings.TrimSpace(r.FormValue("language")),
	})
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	out := toTranscribeResponse(resp)
	out.FileInfo = &api.FileInfo{
		Filename:    header.Filename,
		SizeBytes:   header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}
	WriteJSON(w, http.StatusOK, out)
}

// HandleStream 处理 /ws/transcribe。
// 二进制消息追加音频分片；文本消息 "final" 转写已累积音频并回传一条 JSON 文本消息。
// 连接关闭时丢弃未转写的音频。
func (h *TranscribeHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil {
		WriteError(w, disabledError(), h.logger)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		// Accept 已写出错误响应
		h.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(int64(h.maxStreamBytes))

	ctx := r.Context()
	language := strings.TrimSpace(r.URL.Query().Get("language"))
	buf := speech.NewChunkBuffer(h.maxStreamBytes)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				if n := buf.Len(); n > 0 {
					h.logger.Debug("stream closed with pending audio", zap.Int("bytes", n))
				}
				return
			}
			h.logger.Debug("websocket read failed", zap.Error(err))
			return
		}

		switch typ {
		case websocket.MessageBinary:
			if err := buf.Append(data); err != nil {
				_ = writeStreamMessage(ctx, conn, api.StreamMessage{Type: "error", Error: err.Error()})
				_ = conn.Close(websocket.StatusMessageTooBig, err.Error())
				return
			}
		case websocket.MessageText:
			if strings.TrimSpace(string(data)) != finalMessage {
				continue
			}
			msg := h.flush(ctx, buf, language)
			if err := writeStreamMessage(ctx, conn, msg); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *TranscribeHandler) flush(ctx context.Context, buf *speech.ChunkBuffer, language string) api.StreamMessage {
	resp, err := buf.Flush(ctx, h.transcriber, language)
	if err != nil {
		h.logger.Warn("stream transcription failed", zap.Error(err))
		return api.StreamMessage{Type: "error", Error: err.Error()}
	}
	if resp == nil {
		return api.StreamMessage{Type: "transcription", Segments: []api.SegmentPayload{}}
	}
	out := toTranscribeResponse(resp)
	return api.StreamMessage{
		Type:                "transcription",
		Text:                out.Text,
		Language:            out.Language,
		LanguageProbability: out.LanguageProbability,
		Segments:            out.Segments,
	}
}

func writeStreamMessage(ctx context.Context, conn *websocket.Conn, msg api.StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func toTranscribeResponse(resp *speech.STTResponse) *api.TranscribeResponse {
	out := &api.TranscribeResponse{
		Text:                resp.Text,
		Language:            resp.Language,
		LanguageProbability: resp.LanguageProbability,
		Duration:            resp.Duration,
		Segments:            make([]api.SegmentPayload, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		out.Segments = append(out.Segments, api.SegmentPayload{
			Text:       s.Text,
			Start:      s.Start,
			End:        s.End,
			Confidence: s.Confidence,
		})
	}
	return out
}

func disabledError() *types.Error {
	return types.NewError(types.ErrServiceUnavailable, "transcription is disabled").
		WithHTTPStatus(http.StatusServiceUnavailable)
}
