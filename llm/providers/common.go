package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/BaSui01/a11yoverlay/types"
)

// maxErrorBody 读取错误响应体的上限
const maxErrorBody = 4 << 10

// MapHTTPError 将上游非 2xx 状态映射为 ErrModelTransport。
// 对分析器而言所有传输失败等价（均触发降级），这里仅区分 HTTP 状态与可重试标记。
func MapHTTPError(status int, msg string, provider string) *types.Error {
	httpStatus := http.StatusBadGateway
	retryable := status >= 500 || status == http.StatusTooManyRequests
	if status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout {
		httpStatus = http.StatusGatewayTimeout
	}
	if status == http.StatusNotFound && msg == "" {
		msg = "model or endpoint not found"
	}

	return types.NewError(types.ErrModelTransport, fmt.Sprintf("upstream status %d: %s", status, msg)).
		WithHTTPStatus(httpStatus).
		WithRetryable(retryable).
		WithProvider(provider)
}

// MapTransportError 将连接层错误（拒绝连接、超时、取消）映射为 ErrModelTransport
func MapTransportError(err error, provider string) *types.Error {
	status := http.StatusBadGateway
	msg := "model request failed"

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		status = http.StatusGatewayTimeout
		msg = "model request timed out"
	case errors.Is(err, context.Canceled):
		msg = "model request canceled"
	}

	return types.NewError(types.ErrModelTransport, msg).
		WithCause(err).
		WithHTTPStatus(status).
		WithRetryable(true).
		WithProvider(provider)
}

// ReadErrorMessage 读取响应体中的错误消息
// 兼容 {"error":"..."}（Ollama）与 {"error":{"message":"..."}}（OpenAI），失败则回退到原始文本
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return "failed to read error response"
	}

	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && nested.Error.Message != "" {
		if nested.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", nested.Error.Message, nested.Error.Type)
		}
		return nested.Error.Message
	}

	return strings.TrimSpace(string(data))
}

// DataURL 将 JPEG base64 包装为 data URL
func DataURL(b64 string) string {
	return "data:image/jpeg;base64," + b64
}
