// Package pagecapture 使用无头 Chromium 截取页面截图与可交互元素，
// 产出与浏览器扩展相同形状的数据，供 probe 命令离线验证分析链路。
package pagecapture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/types"
)

// Options 配置页面采集
type Options struct {
	Width  int
	Height int
	// Timeout 整个采集流程的超时
	Timeout time.Duration
	// IdleWait 等待网络空闲的最长时间
	IdleWait time.Duration
	// MaxElements 最多保留的元素数，<= 0 表示不限制
	MaxElements int
	// BrowserBin 指定浏览器路径，空时自动查找
	BrowserBin string
	// ShowBrowser 为 true 时以有头模式运行
	ShowBrowser bool
}

// DefaultOptions 返回默认采集参数
func DefaultOptions() Options {
	return Options{
		Width:       1280,
		Height:      800,
		Timeout:     45 * time.Second,
		IdleWait:    5 * time.Second,
		MaxElements: 100,
	}
}

// Result 一次采集的结果
type Result struct {
	URL        string
	Title      string
	Screenshot []byte // PNG
	Elements   []types.InteractiveElement
}

// Capture 打开 rawURL，等待页面稳定后截取视口截图并提取可交互元素
func Capture(ctx context.Context, rawURL string, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.IdleWait <= 0 {
		opts.IdleWait = def.IdleWait
	}

	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	bin := opts.BrowserBin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}
	l := launcher.New().Context(ctx).Bin(bin).Headless(!opts.ShowBrowser)
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	// 长连接页面不会真正空闲，超时后继续
	page.Timeout(opts.IdleWait).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	res := &Result{URL: target}
	if info, err := page.Info(); err == nil {
		res.Title = info.Title
		res.URL = info.URL
	}

	raw, err := page.Eval(extractElementsJS)
	if err != nil {
		return nil, fmt.Errorf("extract elements: %w", err)
	}
	res.Elements, err = DecodeElements(raw.Value.Str(), opts.MaxElements)
	if err != nil {
		return nil, err
	}

	res.Screenshot, err = page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	logger.Debug("page captured",
		zap.String("url", res.URL),
		zap.Int("elements", len(res.Elements)),
		zap.Int("screenshot_bytes", len(res.Screenshot)))
	return res, nil
}

// NormalizeURL 为缺少协议的地址补上 https://，只接受 http/https
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u.String(), nil
}

// 元素文本截断长度
const maxTextLen = 100

// DecodeElements 解析页面脚本返回的 JSON 元素数组。
// 丢弃没有 selector 的元素，按 selector 去重，并截断过长文本。
func DecodeElements(raw string, limit int) ([]types.InteractiveElement, error) {
	var items []types.InteractiveElement
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}

	out := make([]types.InteractiveElement, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, el := range items {
		el.Selector = strings.TrimSpace(el.Selector)
		if el.Selector == "" || seen[el.Selector] {
			continue
		}
		seen[el.Selector] = true
		el.Tag = strings.ToLower(el.Tag)
		el.Text = truncate(strings.Join(strings.Fields(el.Text), " "), maxTextLen)
		out = append(out, el)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// extractElementsJS 返回可见可交互元素的 JSON 字符串，字段与浏览器扩展一致
const extractElementsJS = `() => {
	const out = [];

	function validIdent(s) {
		if (!s) return false;
		if (/^-?[0-9]/.test(s)) return false;
		return !/[.:#\[\]()>~+*\/\\\s]/.test(s);
	}

	function selectorOf(el) {
		if (el.id && validIdent(el.id)) return '#' + el.id;
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		if (el.className && typeof el.className === 'string') {
			const cls = el.className.trim().split(/\s+/).filter(validIdent).slice(0, 2);
			if (cls.length > 0) {
				const sel = el.tagName.toLowerCase() + '.' + cls.join('.');
				try {
					if (document.querySelectorAll(sel).length === 1) return sel;
				} catch (e) {}
			}
		}
		const parent = el.parentElement;
		if (parent && parent !== document.documentElement) {
			const idx = Array.from(parent.children).indexOf(el) + 1;
			return selectorOf(parent) + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + idx + ')';
		}
		return el.tagName.toLowerCase();
	}

	const query = 'a[href], button, input:not([type="hidden"]), textarea, select, [role="button"], [role="link"], [onclick]';
	document.querySelectorAll(query).forEach(el => {
		if (!el.offsetParent && el.tagName !== 'BODY') return;
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return;
		out.push({
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || el.value || el.getAttribute('aria-label') || '').trim(),
			type: el.type || el.getAttribute('role') || el.tagName.toLowerCase(),
			selector: selectorOf(el),
			placeholder: el.placeholder || undefined,
			bounds: {x: Math.round(r.x), y: Math.round(r.y), width: Math.round(r.width), height: Math.round(r.height)}
		});
	});

	return JSON.stringify(out);
}`
