// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 上下文、上传表单与 JSON 解码辅助
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	body, ct := testutil.NewUpload(t).File("screenshot", "page.png", "image/png", png).Field("dom_elements", "[]").Build()
//	resp := testutil.DecodeJSON[api.AnalyzePageResponse](t, w.Body)
// =============================================================================
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回 30 秒超时的测试上下文，测试结束时自动取消
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 📤 multipart 上传
// =============================================================================

type uploadFile struct {
	field, filename, contentType string
	data                         []byte
}

// Upload 构造 multipart/form-data 请求体（截图、音频上传）
type Upload struct {
	t      *testing.T
	files  []uploadFile
	fields [][2]string
}

// NewUpload 创建上传构造器
func NewUpload(t *testing.T) *Upload {
	return &Upload{t: t}
}

// File 添加文件字段，contentType 为空时使用 application/octet-stream
func (u *Upload) File(field, filename, contentType string, data []byte) *Upload {
	u.files = append(u.files, uploadFile{field: field, filename: filename, contentType: contentType, data: data})
	return u
}

// Field 添加普通字段，按添加顺序写入
func (u *Upload) Field(name, value string) *Upload {
	u.fields = append(u.fields, [2]string{name, value})
	return u
}

// Build 返回请求体与 Content-Type
func (u *Upload) Build() (io.Reader, string) {
	u.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range u.files {
		ct := f.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			u.t.Fatalf("create part %s: %v", f.field, err)
		}
		if _, err := part.Write(f.data); err != nil {
			u.t.Fatalf("write part %s: %v", f.field, err)
		}
	}
	for _, kv := range u.fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			u.t.Fatalf("write field %s: %v", kv[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		u.t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

// =============================================================================
// 📦 JSON 工具
// =============================================================================

// MustJSON 序列化 v，失败时终止测试
func MustJSON(t *testing.T, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// DecodeJSON 解码 r 中的 JSON 为 T，失败时终止测试
func DecodeJSON[T any](t *testing.T, r io.Reader) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return v
}
