package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/BaSui01/a11yoverlay/types"
)

// decodeAnalysis 宽松地读取模型给出的分析对象。
// 数字字段允许以字符串给出（"0"、"0.9"），缺失的 element_index 视为 0。
// 对象中没有 actions 数组时视为格式失败。
func decodeAnalysis(r gjson.Result) (*types.PageAnalysis, bool) {
	actions := r.Get("actions")
	if !actions.IsArray() {
		return nil, false
	}

	out := &types.PageAnalysis{
		PageType:    strings.TrimSpace(r.Get("page_type").String()),
		PageSummary: strings.TrimSpace(r.Get("page_summary").String()),
		Actions:     make([]types.Action, 0, len(actions.Array())),
	}
	for _, a := range actions.Array() {
		if !a.IsObject() {
			continue
		}
		out.Actions = append(out.Actions, types.Action{
			ID:           strings.TrimSpace(a.Get("id").String()),
			Label:        a.Get("label").String(),
			Description:  a.Get("description").String(),
			ElementIndex: int(a.Get("element_index").Int()),
			Confidence:   a.Get("confidence").Float(),
			Reasoning:    a.Get("reasoning").String(),
		})
	}
	return out, true
}

// normalizeAnalysis 截断动作数、限制置信度、补齐缺失 id
func normalizeAnalysis(p *types.PageAnalysis, maxActions int) {
	if p.PageType == "" {
		p.PageType = "unknown"
	}
	if maxActions > 0 && len(p.Actions) > maxActions {
		p.Actions = p.Actions[:maxActions]
	}

	seen := make(map[string]bool, len(p.Actions))
	for i := range p.Actions {
		a := &p.Actions[i]
		a.Confidence = types.ClampConfidence(a.Confidence)
		if a.ID == "" || seen[a.ID] {
			a.ID = fmt.Sprintf("action_%d", i+1)
		}
		seen[a.ID] = true
		if a.Label == "" {
			a.Label = fmt.Sprintf("Action %d", i+1)
		}
	}
}

// decodeCommandMatch 读取并校验模型给出的匹配结果。
// selected_action_id 必须为 null 或已知 id，否则视为格式失败。
func decodeCommandMatch(r gjson.Result, analysis *types.PageAnalysis) (*types.CommandMatch, bool) {
	m := &types.CommandMatch{
		Confidence:            types.ClampConfidence(r.Get("confidence").Float()),
		ClarificationNeeded:   r.Get("clarification_needed").Bool(),
		ClarificationQuestion: strings.TrimSpace(r.Get("clarification_question").String()),
		Reasoning:             r.Get("reasoning").String(),
	}

	sel := r.Get("selected_action_id")
	switch sel.Type {
	case gjson.Null:
		// 缺失或显式 null
	case gjson.String:
		id := strings.TrimSpace(sel.Str)
		if id != "" && !strings.EqualFold(id, "null") {
			if _, ok := analysis.FindAction(id); !ok {
				return nil, false
			}
			m.SelectedActionID = &id
		}
	default:
		return nil, false
	}

	// 选中动作时原样保留模型的澄清字段；未选中时必须给出澄清问题
	if m.SelectedActionID == nil {
		m.ClarificationNeeded = true
		if m.ClarificationQuestion == "" {
			m.ClarificationQuestion = ClarificationQuestion
		}
	}
	return m, true
}

// round2 保留两位小数
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
