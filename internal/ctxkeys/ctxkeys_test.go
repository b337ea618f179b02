package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	_, ok := RequestID(ctx)
	assert.False(t, ok)

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithAPIKey(ctx, "key***")

	v, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", v)

	v, _ = TraceID(ctx)
	assert.Equal(t, "trace-1", v)
	v, _ = SessionID(ctx)
	assert.Equal(t, "sess-1", v)
	v, _ = APIKey(ctx)
	assert.Equal(t, "key***", v)
}

func TestContextKeys_EmptyValue(t *testing.T) {
	ctx := WithSessionID(context.Background(), "")
	_, ok := SessionID(ctx)
	assert.False(t, ok)
}
