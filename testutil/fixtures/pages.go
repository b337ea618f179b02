// Package fixtures 提供测试数据工厂：样例元素、样例模型回复与内存生成的截图。
package fixtures

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"

	"github.com/BaSui01/a11yoverlay/types"
)

// SearchPageElements 返回一个电商搜索页的元素序列
func SearchPageElements() []types.InteractiveElement {
	return []types.InteractiveElement{
		{Tag: "input", Text: "", Type: "search", Selector: "#search", Placeholder: "Search products", Bounds: &types.Bounds{X: 100, Y: 20, Width: 400, Height: 32}},
		{Tag: "button", Text: "Search products", Type: "submit", Selector: "#search-btn", Bounds: &types.Bounds{X: 510, Y: 20, Width: 80, Height: 32}},
		{Tag: "a", Text: "Shopping cart", Type: "link", Selector: "a.cart", Bounds: &types.Bounds{X: 900, Y: 20}},
		{Tag: "a", Text: "Sign in", Type: "link", Selector: "a.login", Bounds: &types.Bounds{X: 980, Y: 20, Width: 60, Height: 20}},
	}
}

// AnalysisJSON 是一个合法的模型分析回复
const AnalysisJSON = `{
  "page_type": "e-commerce",
  "actions": [
    {"id": "action_1", "label": "Search products", "description": "Search the catalog", "element_index": 1, "confidence": 0.95, "reasoning": "Primary action"},
    {"id": "action_2", "label": "Open cart", "description": "View the cart", "element_index": 2, "confidence": 0.8, "reasoning": "Common"},
    {"id": "action_3", "label": "Sign in", "description": "Log in", "element_index": 3, "confidence": 0.6, "reasoning": "Account"}
  ],
  "page_summary": "An online store search page"
}`

// SearchPageAnalysis 返回与 AnalysisJSON 对应的分析结果（未 enrich）
func SearchPageAnalysis() *types.PageAnalysis {
	return &types.PageAnalysis{
		PageType:    "e-commerce",
		PageSummary: "An online store search page",
		Actions: []types.Action{
			{ID: "action_1", Label: "Search products", Description: "Search the catalog", ElementIndex: 1, Confidence: 0.95},
			{ID: "action_2", Label: "Open cart", Description: "View the cart", ElementIndex: 2, Confidence: 0.8},
			{ID: "action_3", Label: "Sign in", Description: "Log in", ElementIndex: 3, Confidence: 0.6},
		},
	}
}

// PNG 生成 w×h 的纯色 PNG
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: 30, G: 120, B: 200, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// PNGBase64 生成 PNG 并以 base64 返回
func PNGBase64(w, h int) string {
	return base64.StdEncoding.EncodeToString(PNG(w, h))
}

// PNGDataURL 生成 PNG 并以 data URL 返回
func PNGDataURL(w, h int) string {
	return "data:image/png;base64," + PNGBase64(w, h)
}
