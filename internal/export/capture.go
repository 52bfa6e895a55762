package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"resumify/internal/render"
)

var (
	// ErrTargetNotFound 表示文档中没有导出根元素。
	ErrTargetNotFound = errors.New("export target not found")
	// ErrCapture 表示浏览器截图失败。
	ErrCapture = errors.New("capture failed")
)

// Format 是截图编码。
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

const (
	DefaultDeviceScale = 2.0
	DefaultSettleDelay = 100 * time.Millisecond
)

// CaptureRequest 描述一次离屏截图。
type CaptureRequest struct {
	HTML     string
	Selector string
	// Scale 是设备像素比，导出不低于 2，缩略图取缩放比例。
	Scale   float64
	Settle  time.Duration
	Format  Format
	Quality int
}

// Bitmap 是截图结果，Width/Height 为像素尺寸。
type Bitmap struct {
	Data   []byte
	Format Format
	Width  int
	Height int
}

// Capturer 在无头浏览器中渲染 HTML 并对选择器命中的元素截图。
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) (Bitmap, error)
}

// CheckTarget 在启动浏览器前确认文档包含 selector 命中的元素。
func CheckTarget(doc, selector string) error {
	q, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return fmt.Errorf("parse export document: %w", err)
	}
	if q.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, selector)
	}
	return nil
}

func (r CaptureRequest) withDefaults() CaptureRequest {
	if r.Selector == "" {
		r.Selector = render.TargetSelector
	}
	if r.Scale <= 0 {
		r.Scale = DefaultDeviceScale
	}
	if r.Format == "" {
		r.Format = FormatPNG
	}
	if r.Format == FormatJPEG && (r.Quality <= 0 || r.Quality > 100) {
		r.Quality = 90
	}
	return r
}

// decodeBitmap 读取图片头得到像素尺寸。
func decodeBitmap(data []byte, format Format) (Bitmap, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Bitmap{}, fmt.Errorf("%w: decode screenshot: %w", ErrCapture, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Bitmap{}, fmt.Errorf("%w: %w", ErrCapture, ErrEmptyBitmap)
	}
	return Bitmap{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// settle 等待固定延迟，ctx 结束时提前返回。
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const fontsReadyJS = `() => {
  if (document && document.fonts && document.fonts.ready) {
    return Promise.race([
      document.fonts.ready.then(() => true),
      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
    ]);
  }
  return true;
}`
