package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/BaSui01/a11yoverlay/types"
)

// BuildVisionPrompt 构造页面分析指令，嵌入元素摘要与期望的 JSON 结构
func BuildVisionPrompt(summary string, maxActions int) string {
	return fmt.Sprintf(`You are analyzing a webpage screenshot.

Here are the interactive elements found on the page:
%s

Based on the VISUAL CONTENT (screenshot) and these elements:
1. What type of page is this? (e-commerce, login form, article, dashboard, etc.)
2. What are the %d most important actions a user would want to do?
3. For each action, which DOM element should be used? (use the index numbers above)

Return ONLY JSON with this exact structure:
{
    "page_type": "string",
    "actions": [
        {
            "id": "action_1",
            "label": "Clear action label",
            "description": "What this does",
            "element_index": 0,
            "confidence": 0.95,
            "reasoning": "Why this is important"
        }
    ],
    "page_summary": "Brief summary"
}
The "actions" array must contain exactly %d entries ordered from most to least important.
"element_index" must match an index number from the element list above.`, summary, maxActions, maxActions)
}

// promptAction 命令提示中暴露给模型的动作字段
type promptAction struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	ElementType string `json:"element_type,omitempty"`
}

// BuildCommandPrompt 构造命令解释指令
func BuildCommandPrompt(command string, analysis *types.PageAnalysis) string {
	pageType, summary := "unknown", ""
	actions := make([]promptAction, 0)
	if analysis != nil {
		if analysis.PageType != "" {
			pageType = analysis.PageType
		}
		summary = analysis.PageSummary
		for _, a := range analysis.Actions {
			actions = append(actions, promptAction{
				ID:          a.ID,
				Label:       a.Label,
				Description: a.Description,
				ElementType: a.ElementType,
			})
		}
	}

	actionsJSON, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		actionsJSON = []byte("[]")
	}

	return fmt.Sprintf(`User said: %q

Current Page: %s
Page Summary: %s

Available Actions on this page:
%s

Which action does the user want? Return ONLY JSON:
{
    "selected_action_id": "one of the action ids above, or null",
    "confidence": 0.0,
    "clarification_needed": false,
    "clarification_question": "question if needed",
    "reasoning": "brief explanation"
}`, command, pageType, summary, string(actionsJSON))
}
