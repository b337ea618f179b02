// 版权所有 2024 A11y Overlay Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖
HTTP、模型调用、分析降级、命令匹配、会话与图像处理几个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 模型指标：请求总数与耗时，按 provider/model/operation 分组。
  - 降级指标：页面分析走备用路径的次数，按原因（transport/format）分组。
  - 命令匹配指标：按策略（model/keyword/clarify）分组。
  - 会话指标：当前活跃会话数 Gauge。
  - 图像指标：截图规范化耗时。
*/
package metrics
