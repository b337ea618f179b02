// Package ollama 实现 Ollama 原生 API 的 llm.Provider。
//
// 端点：
//   - POST /api/chat      — 视觉请求（messages[].images 携带 base64）
//   - POST /api/generate  — 纯文本请求
//   - GET  /api/tags      — 探活并确认模型已下载
//
// 所有请求均为非流式（stream:false），不做重试。
package ollama
