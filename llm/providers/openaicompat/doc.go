// Package openaicompat 基于 go-openai 实现 OpenAI 兼容端点的 llm.Provider。
//
// 适用于 Ollama 的 /v1 兼容层、vLLM、LM Studio 等本地推理服务。
// 图像以 data URL 形式作为 image_url 内容片段发送。
package openaicompat
