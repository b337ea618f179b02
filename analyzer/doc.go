// Copyright (c) A11y Overlay Authors.
// Licensed under the MIT License.

/*
Package analyzer 把截图与可交互元素转换为排好序的候选动作，并把用户命令
匹配到其中一个动作。

# 数据流

	截图 ──► imaging.Normalize ──┐
	                              ├──► Vision 模型 ──► JSON 恢复 ──► 规范化 ──► Enrich ──► PageAnalysis
	元素 ──► SummarizeElements ───┘          │失败                │失败
	                                         └────────► Fallback ◄┘

	命令 + PageAnalysis ──► 文本模型 ──► 校验 ──► CommandMatch
	                           │失败/非法
	                           └──► KeywordMatch

# 降级约定

模型传输失败与格式失败都不会暴露给调用方：页面分析退化为确定性的
Fallback（前三个元素），命令解释退化为关键词重叠匹配。唯一向上返回的
领域错误是截图解码失败（types.ErrImageDecode）。

# 元素下标

element_index 是元素在请求序列中的 0 基下标，只对该序列有意义。
*/
package analyzer
