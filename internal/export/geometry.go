package export

import (
	"errors"
	"fmt"
)

// A4 纵向页面尺寸。
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

// ErrEmptyBitmap 表示截图没有可用像素。
var ErrEmptyBitmap = errors.New("empty bitmap")

// PageWindow 描述一页中整张长图的放置位置：图片左上角位于 y = OffsetMM。
type PageWindow struct {
	Index    int
	OffsetMM float64
}

// Layout 是长图在 PDF 中的排布结果。
type Layout struct {
	ImageWidthMM  float64
	ImageHeightMM float64
	Pages         []PageWindow
}

// Paginate 把宽为 PageWidthMM 的长图切成 A4 页窗口。
// 第 k 页把图片放在 y = -k*297mm，剩余高度大于 0 时继续分页，至少一页。
// 不足半个像素的剩余高度视为取整误差，不再单独成页。
func Paginate(bitmapWidth, bitmapHeight int) (Layout, error) {
	if bitmapWidth <= 0 || bitmapHeight <= 0 {
		return Layout{}, fmt.Errorf("paginate %dx%d: %w", bitmapWidth, bitmapHeight, ErrEmptyBitmap)
	}
	heightMM := float64(bitmapHeight) * PageWidthMM / float64(bitmapWidth)
	return Layout{
		ImageWidthMM:  PageWidthMM,
		ImageHeightMM: heightMM,
		Pages:         windows(heightMM, PageWidthMM/float64(bitmapWidth)/2),
	}, nil
}

func windows(heightMM, toleranceMM float64) []PageWindow {
	pages := []PageWindow{{Index: 0, OffsetMM: 0}}
	left := heightMM - PageHeightMM
	for k := 1; left > toleranceMM; k++ {
		pages = append(pages, PageWindow{Index: k, OffsetMM: -float64(k) * PageHeightMM})
		left -= PageHeightMM
	}
	return pages
}
