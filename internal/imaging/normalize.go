package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"strings"

	"github.com/nfnt/resize"

	"github.com/BaSui01/a11yoverlay/types"
)

const (
	// DefaultMaxDimension 长边上限
	DefaultMaxDimension = 1024
	// DefaultJPEGQuality 输出 JPEG 质量
	DefaultJPEGQuality = 85
	// DefaultMaxPixels 解码前允许的最大像素数，与 PIL 的解压炸弹阈值一致
	DefaultMaxPixels = 89_478_485
	// FormatJPEG 输出格式标识
	FormatJPEG = "jpeg"
)

var errEmptyImage = errors.New("empty image data")

// ErrTooManyPixels 声明尺寸超过 MaxPixels
var ErrTooManyPixels = errors.New("image exceeds pixel limit")

// Result 规范化后的图像
type Result struct {
	Base64         string `json:"-"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Format         string `json:"format"`
	SourceFormat   string `json:"source_format"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
}

// Options 控制缩放上限与编码质量
type Options struct {
	MaxDimension int
	Quality      int
	// MaxPixels 限制声明的 宽*高，在完整解码前检查
	MaxPixels int64
}

// DefaultOptions 返回默认参数（1024 / 85 / PIL 像素上限）
func DefaultOptions() Options {
	return Options{MaxDimension: DefaultMaxDimension, Quality: DefaultJPEGQuality, MaxPixels: DefaultMaxPixels}
}

// Normalize 使用默认参数处理原始字节
func Normalize(raw []byte) (*Result, error) {
	return DefaultOptions().Normalize(raw)
}

// NormalizeString 使用默认参数处理 base64 文本（可带 data URL 前缀）
func NormalizeString(s string) (*Result, error) {
	return DefaultOptions().NormalizeString(s)
}

// NormalizeString 解码 base64 文本后再规范化
func (o Options) NormalizeString(s string) (*Result, error) {
	raw, err := DecodeBase64(s)
	if err != nil {
		return nil, types.NewImageDecodeError(err)
	}
	return o.Normalize(raw)
}

// Normalize 解码、转 RGB、缩放并重新编码
func (o Options) Normalize(raw []byte) (*Result, error) {
	if len(raw) == 0 {
		return nil, types.NewImageDecodeError(errEmptyImage)
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultJPEGQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}

	// 只读文件头，拒绝声明尺寸过大的图像，避免解码时分配巨量内存
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, types.NewImageDecodeError(err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > o.MaxPixels {
		return nil, types.NewImageDecodeError(fmt.Errorf("%w: %dx%d (%d > %d)",
			ErrTooManyPixels, cfg.Width, cfg.Height, pixels, o.MaxPixels))
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, types.NewImageDecodeError(err)
	}

	b := src.Bounds()
	res := &Result{
		Format:         FormatJPEG,
		SourceFormat:   format,
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
	}

	var img image.Image = ToRGB(src)
	w, h := FitWithin(b.Dx(), b.Dy(), o.MaxDimension)
	if w != b.Dx() || h != b.Dy() {
		img = resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	res.Width = img.Bounds().Dx()
	res.Height = img.Bounds().Dy()
	res.Base64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	return res, nil
}

// FitWithin 计算长边不超过 limit 的目标尺寸。
// 长边恰好缩放为 limit，短边按整数比例截断，最小为 1。
func FitWithin(w, h, limit int) (int, int) {
	long := w
	if h > long {
		long = h
	}
	if long <= limit {
		return w, h
	}
	nw := w * limit / long
	nh := h * limit / long
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// ToRGB 转换为不透明的 RGBA 图像。
// 透明像素保留其原始颜色而非与黑色混合。
func ToRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if opaque, ok := src.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// DecodeBase64 剥离 data URL 前缀（到第一个逗号为止）并解码
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, errors.New("malformed data URL")
		}
		s = s[idx+1:]
	}
	if s == "" {
		return nil, errEmptyImage
	}

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		raw, err := enc.DecodeString(s)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("decode base64: %w", firstErr)
}
