package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Request / transport error codes
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrPayloadTooLarge    ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Domain error codes
const (
	// ErrImageDecode 截图无法解码为受支持的栅格格式
	ErrImageDecode ErrorCode = "IMAGE_DECODE"
	// ErrModelTransport 模型端点不可达、超时或返回非 2xx
	ErrModelTransport ErrorCode = "MODEL_TRANSPORT"
	// ErrModelFormat 模型回复中无法恢复出合法 JSON
	ErrModelFormat ErrorCode = "MODEL_FORMAT"
	// ErrSessionNotFound 会话不存在或已过期
	ErrSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrTranscription 语音识别失败
	ErrTranscription ErrorCode = "TRANSCRIPTION_FAILED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// AsError extracts a *Error from anywhere in the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// NewImageDecodeError wraps an image decode failure.
func NewImageDecodeError(cause error) *Error {
	return NewError(ErrImageDecode, "invalid image data").WithCause(cause).WithHTTPStatus(400)
}

// NewSessionNotFoundError is returned when a session id is unknown or expired.
func NewSessionNotFoundError(id string) *Error {
	return NewError(ErrSessionNotFound, fmt.Sprintf("session %q not found", id)).WithHTTPStatus(404)
}

// NewInvalidRequestError reports a malformed client request.
func NewInvalidRequestError(message string) *Error {
	return NewError(ErrInvalidRequest, message).WithHTTPStatus(400)
}
