package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/a11yoverlay/types"
)

// ParseElements 解析前端提交的元素数组。
// 严格 JSON 失败时尝试一次 RepairSingleQuotedJSON；repaired 表示使用了修复结果。
func ParseElements(raw string) (elements []types.InteractiveElement, repaired bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []types.InteractiveElement{}, false, nil
	}

	strictErr := json.Unmarshal([]byte(raw), &elements)
	if strictErr == nil {
		if elements == nil {
			elements = []types.InteractiveElement{}
		}
		return elements, false, nil
	}

	elements = nil
	if err := json.Unmarshal([]byte(RepairSingleQuotedJSON(raw)), &elements); err != nil {
		return nil, false, fmt.Errorf("invalid dom_elements JSON: %w", strictErr)
	}
	if elements == nil {
		elements = []types.InteractiveElement{}
	}
	return elements, true, nil
}

// RepairSingleQuotedJSON 将所有单引号替换为双引号。
// 这是有损修复：文本中带撇号（如 "Don't"）的输入会被破坏，仅作为最后手段。
func RepairSingleQuotedJSON(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}
