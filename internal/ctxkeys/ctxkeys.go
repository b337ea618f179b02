// Package ctxkeys 定义跨包共享的 context 键。
package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	traceIDKey   contextKey = "trace_id"
	sessionIDKey contextKey = "session_id"
	apiKeyKey    contextKey = "api_key"
)

// WithRequestID 设置 RequestID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID 获取 RequestID
func RequestID(ctx context.Context) (string, bool) {
	return lookup(ctx, requestIDKey)
}

// WithTraceID 设置 TraceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID 获取 TraceID
func TraceID(ctx context.Context) (string, bool) {
	return lookup(ctx, traceIDKey)
}

// WithSessionID 设置当前请求处理的会话 ID
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionID 获取会话 ID
func SessionID(ctx context.Context) (string, bool) {
	return lookup(ctx, sessionIDKey)
}

// WithAPIKey 记录通过认证的 API Key（已脱敏）
func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyKey, key)
}

// APIKey 获取已认证的 API Key
func APIKey(ctx context.Context) (string, bool) {
	return lookup(ctx, apiKeyKey)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
