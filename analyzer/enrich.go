package analyzer

import "github.com/BaSui01/a11yoverlay/types"

// Enrich 为每个下标合法的动作补充对应元素的 selector、tag 与 bounds。
// 越界下标保持原样，不报错。
func Enrich(analysis *types.PageAnalysis, elements []types.InteractiveElement) {
	if analysis == nil {
		return
	}
	for i := range analysis.Actions {
		a := &analysis.Actions[i]
		idx := a.ElementIndex
		if idx < 0 || idx >= len(elements) {
			continue
		}
		el := elements[idx]
		a.Selector = el.Selector
		a.ElementType = el.Tag
		if el.Bounds != nil {
			b := *el.Bounds
			a.Bounds = &b
		}
	}
}
