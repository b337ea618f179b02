package analyzer

import (
	"fmt"
	"strings"

	"github.com/BaSui01/a11yoverlay/types"
)

// MaxSummaryElements 摘要中最多包含的元素数
const MaxSummaryElements = 20

// SummarizeElements 将元素格式化为模型可读的编号列表：
//
//	{i}. {tag} - Text: '{text}' - Type: {type}
//
// 只取前 MaxSummaryElements 个，保持原顺序，行间以 "\n" 连接。
func SummarizeElements(elements []types.InteractiveElement) string {
	n := len(elements)
	if n > MaxSummaryElements {
		n = MaxSummaryElements
	}

	lines := make([]string, 0, n)
	for i, el := range elements[:n] {
		lines = append(lines, fmt.Sprintf("%d. %s - Text: '%s' - Type: %s", i, el.Tag, el.Text, el.Type))
	}
	return strings.Join(lines, "\n")
}
