package types

import (
	"math"
	"time"
)

// =============================================================================
// 📄 页面元素
// =============================================================================

// Bounds 元素在截图中的位置（Width/Height 可选）
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// InteractiveElement 前端采集到的可交互元素。
// 它在请求序列中的下标即 element_index，仅在该序列内有效。
type InteractiveElement struct {
	Tag         string  `json:"tag"`
	Text        string  `json:"text"`
	Type        string  `json:"type"`
	Selector    string  `json:"selector"`
	Bounds      *Bounds `json:"bounds,omitempty"`
	Placeholder string  `json:"placeholder,omitempty"`
}

// =============================================================================
// 🎯 分析结果
// =============================================================================

// Action 一个排序后的候选动作
type Action struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	ElementIndex int     `json:"element_index"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning,omitempty"`

	// 以下字段由 enrich 阶段从对应元素复制
	Selector    string  `json:"selector,omitempty"`
	ElementType string  `json:"element_type,omitempty"`
	Bounds      *Bounds `json:"bounds,omitempty"`
}

// PageAnalysis 一次页面分析的结果
type PageAnalysis struct {
	PageType    string   `json:"page_type"`
	PageSummary string   `json:"page_summary"`
	Actions     []Action `json:"actions"`
}

// FindAction 按 id 查找动作
func (p *PageAnalysis) FindAction(id string) (*Action, bool) {
	if p == nil {
		return nil, false
	}
	for i := range p.Actions {
		if p.Actions[i].ID == id {
			return &p.Actions[i], true
		}
	}
	return nil, false
}

// CommandMatch 命令解释结果。SelectedActionID 为 nil 表示没有匹配。
type CommandMatch struct {
	SelectedActionID      *string `json:"selected_action_id"`
	Confidence            float64 `json:"confidence"`
	ClarificationNeeded   bool    `json:"clarification_needed"`
	ClarificationQuestion string  `json:"clarification_question,omitempty"`
	Reasoning             string  `json:"reasoning,omitempty"`
}

// ImageInfo 上传截图的元信息
type ImageInfo struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int    `json:"size_bytes"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// =============================================================================
// 💾 会话
// =============================================================================

// Session 保存最近一次分析结果及其元素序列，供后续命令解释使用
type Session struct {
	ID        string               `json:"id"`
	Analysis  *PageAnalysis        `json:"analysis"`
	Elements  []InteractiveElement `json:"elements"`
	ImageInfo *ImageInfo           `json:"image_info,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ClampConfidence 将置信度限制在 [0, 1]
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c):
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
