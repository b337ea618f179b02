// Copyright (c) A11y Overlay Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 A11y Overlay HTTP API 的请求处理器实现。

# 概述

handlers 包实现了页面分析、命令解释、会话查询、语音转写与健康检查端点。
所有 Handler 均遵循标准 net/http 接口，通过 Swagger 注解生成 API 文档。

# 核心类型

  - PageHandler       — analyze-page / analyze-page-base64 / interpret-command / sessions
  - TranscribeHandler — 音频上传转写与 WebSocket 流式转写
  - HealthHandler     — /health（模型连通性）、/healthz、/ready、/version
  - Response          — 错误信封（success + error + timestamp）
  - ErrorInfo         — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter    — 包装 http.ResponseWriter 以捕获状态码，支持 Hijack
  - HealthCheck       — 可插拔就绪检查接口（Model、Redis）

# 主要能力

  - 成功响应直接写负载 JSON，错误统一经 WriteError / WriteErr 输出信封
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 上传体积限制：超过上限返回 413 PAYLOAD_TOO_LARGE
  - 同一会话的分析、解释与删除通过 session.KeyedMutex 串行化
  - /health 的并发探活通过 singleflight 合并
*/
package handlers
