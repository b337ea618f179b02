// Copyright (c) A11y Overlay Authors.
// Licensed under the MIT License.

/*
Package types 提供 a11yoverlay 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 analyzer、llm、api
等上层模块提供统一的类型契约。

# 核心类型

  - InteractiveElement — 页面上的可交互 DOM 元素（tag / text / type / selector / bounds）
  - Bounds             — 元素在截图中的位置与尺寸
  - Action             — 模型推荐的候选动作（已排序，可被 enrich 补充 selector 等字段）
  - PageAnalysis       — 一次页面分析结果（page_type + page_summary + actions）
  - CommandMatch       — 用户命令与动作的匹配结果，可能要求澄清
  - Error / ErrorCode  — 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

元素在请求序列中的下标（element_index）只在该请求（或保存该序列的会话）
范围内有意义，不能作为持久化主键。
*/
package types
