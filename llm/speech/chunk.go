package speech

import (
	"bytes"
	"context"
	"errors"
	"sync"
)

// ErrChunkBufferFull 累积的音频超过上限
var ErrChunkBufferFull = errors.New("audio buffer limit exceeded")

// ChunkBuffer 累积流式音频分片，Flush 时整体转写并清空。
// 音频容器（wav/webm）无法按分片独立解码，因此只在结束时转写。
type ChunkBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	maxBytes int
}

// NewChunkBuffer 创建缓冲区，maxBytes <= 0 表示不限制
func NewChunkBuffer(maxBytes int) *ChunkBuffer {
	return &ChunkBuffer{maxBytes: maxBytes}
}

// Append 追加一个分片
func (b *ChunkBuffer) Append(chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxBytes > 0 && b.buf.Len()+len(chunk) > b.maxBytes {
		return ErrChunkBufferFull
	}
	b.buf.Write(chunk)
	return nil
}

// Len 返回已累积字节数
func (b *ChunkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// Flush 转写已累积的音频并清空缓冲区。缓冲区为空时返回 nil, nil。
func (b *ChunkBuffer) Flush(ctx context.Context, t Transcriber, language string) (*STTResponse, error) {
	b.mu.Lock()
	if b.buf.Len() == 0 {
		b.mu.Unlock()
		return nil, nil
	}
	data := make([]byte, b.buf.Len())
	copy(data, b.buf.Bytes())
	b.buf.Reset()
	b.mu.Unlock()

	return t.Transcribe(ctx, &STTRequest{
		Audio:    bytes.NewReader(data),
		Filename: "stream.wav",
		Language: language,
	})
}
