// Package providers 包含各模型后端实现共享的 HTTP 错误映射与响应解析工具。
//
// 子包：
//   - ollama       — Ollama 原生 /api/chat、/api/generate、/api/tags
//   - openaicompat — 任意 OpenAI 兼容端点（Ollama /v1、vLLM、LM Studio）
package providers
