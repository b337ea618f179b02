package analyzer

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSONObject 从模型回复中恢复一个 JSON 对象。
//
// 先尝试整体解析；失败时取第一个 '{' 到最后一个 '}' 之间的贪婪片段（可跨行）
// 再解析一次。两者都失败返回 false。
func ExtractJSONObject(text string) (gjson.Result, bool) {
	if r, ok := parseObject(text); ok {
		return r, true
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	return parseObject(text[start : end+1])
}

func parseObject(s string) (gjson.Result, bool) {
	if !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	r := gjson.Parse(s)
	if !r.IsObject() {
		return gjson.Result{}, false
	}
	return r, true
}
