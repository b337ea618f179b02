// Copyright (c) A11y Overlay Authors.
// Licensed under the MIT License.

/*
Package llm 定义本地视觉模型后端的统一抽象。

# 概述

Provider 只暴露服务需要的两种调用：带图像的 Vision（页面分析）与纯文本
Generate（命令解释），外加轻量的 HealthCheck。具体实现位于
llm/providers 子包（ollama 原生 API、OpenAI 兼容 API），由 llm/factory
按配置创建，避免 llm 包与实现包之间的循环依赖。

# 错误约定

所有传输层失败（连接失败、超时、非 2xx）统一返回 types.ErrModelTransport，
上层分析器据此降级到确定性的备用路径，不做重试。

# 可观测性

Instrument 为任意 Provider 包装 Prometheus 指标与 OpenTelemetry span。
*/
package llm
