// Copyright (c) A11y Overlay Authors.
// Licensed under the MIT License.

/*
Package main 提供 A11y Overlay 服务端程序入口。

# 概述

cmd/a11yoverlay 是服务的可执行入口（cobra），提供 HTTP API 服务、
健康检查、版本查询以及 probe 调试子命令。程序支持 YAML 配置文件与
.env 加载、结构化日志（zap + lumberjack 滚动文件）、Prometheus
指标采集和 OpenTelemetry 追踪。

# 核心类型

  - Server      — 主服务器，管理 HTTP、Metrics 双端口、会话存储及优雅关闭
  - Middleware  — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、health、version、probe（抓取页面并本地分析）
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    Metrics、OTelTracing、CORS、RateLimiter（基于 IP）、
    APIKeyAuth（X-API-Key / query 参数）
  - 包装的 ResponseWriter 透传 Hijacker，/ws/transcribe 可穿过整条中间件链
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 停止限流清理 → 关闭 HTTP → 关闭 Metrics →
    关闭会话存储与 Redis → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
