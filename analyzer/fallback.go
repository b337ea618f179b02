package analyzer

import (
	"fmt"
	"strings"

	"github.com/BaSui01/a11yoverlay/types"
)

const (
	fallbackActionCount = 3
	maxLabelRunes       = 50

	FallbackPageType    = "generic"
	FallbackPageSummary = "Fallback analysis"
)

// Fallback 在模型不可用或输出无法解析时生成确定性的分析结果：
// 取前三个元素，置信度依次为 0.7、0.6、0.5。
func Fallback(elements []types.InteractiveElement) *types.PageAnalysis {
	n := len(elements)
	if n > fallbackActionCount {
		n = fallbackActionCount
	}

	actions := make([]types.Action, 0, n)
	for i, el := range elements[:n] {
		label := truncateRunes(strings.TrimSpace(el.Text), maxLabelRunes)
		if label == "" {
			label = fmt.Sprintf("Action %d", i)
		}
		tag := el.Tag
		if tag == "" {
			tag = "element"
		}
		actions = append(actions, types.Action{
			ID:           fmt.Sprintf("fallback_%d", i),
			Label:        label,
			Description:  "Click " + tag,
			ElementIndex: i,
			Confidence:   round2(0.7 - 0.1*float64(i)),
			Reasoning:    "Fallback: model analysis unavailable, using element order",
		})
	}

	return &types.PageAnalysis{
		PageType:    FallbackPageType,
		PageSummary: FallbackPageSummary,
		Actions:     actions,
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
