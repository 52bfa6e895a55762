package thumbnail

import (
	"context"
	"math"
	"strconv"
	"sync"
)

const (
	// ReferenceWidth 是模板按 A4 在 96 DPI 下的渲染宽度。
	ReferenceWidth = 794
	// ReferenceHeight 是单页参考高度。
	ReferenceHeight = 1123
	// InitialScale 是尚未测量到容器宽度时使用的缩放比例。
	InitialScale = 0.2
)

// ScaleFor 计算容器宽度对应的缩放比例，宽度无效时 ok 为 false。
func ScaleFor(width float64) (scale float64, ok bool) {
	if !(width > 0) || math.IsInf(width, 0) {
		return 0, false
	}
	return width / ReferenceWidth, true
}

// Scaler 跟踪一个缩略图容器的宽度并维护当前缩放比例，可并发使用。
type Scaler struct {
	mu    sync.RWMutex
	scale float64
}

func NewScaler() *Scaler {
	return &Scaler{scale: InitialScale}
}

// Observe 记录一次宽度测量并返回生效的比例；宽度为 0 或负数时保留原值。
func (s *Scaler) Observe(width float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, ok := ScaleFor(width); ok {
		s.scale = next
	}
	return s.scale
}

func (s *Scaler) Scale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scale
}

// Watch 持续消费宽度变化，直到 widths 关闭或 ctx 结束。
// onChange 可为 nil，仅在比例实际变化时调用。
func (s *Scaler) Watch(ctx context.Context, widths <-chan float64, onChange func(scale float64)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case w, ok := <-widths:
			if !ok {
				return nil
			}
			prev := s.Scale()
			next := s.Observe(w)
			if onChange != nil && next != prev {
				onChange(next)
			}
		}
	}
}

// Transform 返回 CSS transform 值。
func Transform(scale float64) string {
	return "scale(" + strconv.FormatFloat(scale, 'f', -1, 64) + ")"
}

// Size 返回缩放后外框的像素尺寸，向上取整以免裁掉最后一行像素。
func Size(scale float64) (width, height int) {
	return int(math.Ceil(ReferenceWidth * scale)), int(math.Ceil(ReferenceHeight * scale))
}
