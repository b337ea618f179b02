// MockProvider 的模型后端测试模拟实现。
//
// 支持固定响应、错误注入与调用记录。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/a11yoverlay/llm"
)

// --- MockProvider 结构 ---

// MockProvider 是 llm.Provider 的模拟实现
type MockProvider struct {
	mu sync.RWMutex

	// 响应配置
	visionResponse   string
	generateResponse string
	visionErr        error
	generateErr      error
	healthErr        error
	healthy          bool

	visionFunc   func(ctx context.Context, req *llm.VisionRequest) (*llm.Response, error)
	generateFunc func(ctx context.Context, req *llm.GenerateRequest) (*llm.Response, error)

	// 调用记录
	visionCalls   []llm.VisionRequest
	generateCalls []llm.GenerateRequest
	healthCalls   int
}

// --- 构造函数和 Builder 方法 ---

// NewMockProvider 创建新的 MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		visionResponse:   "{}",
		generateResponse: "{}",
		healthy:          true,
	}
}

// WithVisionResponse 设置 Vision 的固定回复
func (m *MockProvider) WithVisionResponse(content string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visionResponse = content
	return m
}

// WithGenerateResponse 设置 Generate 的固定回复
func (m *MockProvider) WithGenerateResponse(content string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateResponse = content
	return m
}

// WithError 让 Vision 与 Generate 都返回 err
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visionErr = err
	m.generateErr = err
	return m
}

// WithVisionFunc 设置自定义 Vision 函数
func (m *MockProvider) WithVisionFunc(fn func(ctx context.Context, req *llm.VisionRequest) (*llm.Response, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visionFunc = fn
	return m
}

// WithGenerateFunc 设置自定义 Generate 函数
func (m *MockProvider) WithGenerateFunc(fn func(ctx context.Context, req *llm.GenerateRequest) (*llm.Response, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateFunc = fn
	return m
}

// WithHealth 设置健康检查结果
func (m *MockProvider) WithHealth(healthy bool, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
	m.healthErr = err
	return m
}

// --- Provider 接口实现 ---

// Name 返回 Provider 名称
func (m *MockProvider) Name() string { return "mock" }

// Model 返回模型名称
func (m *MockProvider) Model() string { return "mock-vl" }

// Vision 记录调用并返回配置的回复
func (m *MockProvider) Vision(ctx context.Context, req *llm.VisionRequest) (*llm.Response, error) {
	m.mu.Lock()
	m.visionCalls = append(m.visionCalls, *req)
	fn, content, err := m.visionFunc, m.visionResponse, m.visionErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return &llm.Response{Provider: "mock", Model: "mock-vl", Content: content, Latency: time.Millisecond}, nil
}

// Generate 记录调用并返回配置的回复
func (m *MockProvider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.Response, error) {
	m.mu.Lock()
	m.generateCalls = append(m.generateCalls, *req)
	fn, content, err := m.generateFunc, m.generateResponse, m.generateErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return &llm.Response{Provider: "mock", Model: "mock-vl", Content: content, Latency: time.Millisecond}, nil
}

// HealthCheck 执行健康检查
func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthCalls++
	return &llm.HealthStatus{
		Healthy:        m.healthy,
		Latency:        10 * time.Millisecond,
		Model:          "mock-vl",
		ModelAvailable: m.healthy,
	}, m.healthErr
}

// --- 调用记录 ---

// VisionCalls 返回 Vision 调用记录副本
func (m *MockProvider) VisionCalls() []llm.VisionRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]llm.VisionRequest(nil), m.visionCalls...)
}

// GenerateCalls 返回 Generate 调用记录副本
func (m *MockProvider) GenerateCalls() []llm.GenerateRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]llm.GenerateRequest(nil), m.generateCalls...)
}

// HealthCalls 返回健康检查调用次数
func (m *MockProvider) HealthCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthCalls
}

var _ llm.Provider = (*MockProvider)(nil)
