package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// DocumentInfo 写入 PDF 元数据。
type DocumentInfo struct {
	Title  string
	Author string
}

const bitmapImageName = "resume"

// AssemblePDF 把整张长图按 layout 放到每一页，页面之外的部分由页面边界裁掉。
func AssemblePDF(bmp Bitmap, layout Layout, info DocumentInfo) ([]byte, error) {
	if len(layout.Pages) == 0 {
		return nil, fmt.Errorf("assemble pdf: no pages")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("Resumify", true)
	if info.Title != "" {
		pdf.SetTitle(info.Title, true)
	}
	if info.Author != "" {
		pdf.SetAuthor(info.Author, true)
	}

	imageType := "PNG"
	if bmp.Format == FormatJPEG {
		imageType = "JPG"
	}
	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(bitmapImageName, opts, bytes.NewReader(bmp.Data))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("register page image: %w", err)
	}

	for _, w := range layout.Pages {
		pdf.AddPage()
		pdf.ImageOptions(bitmapImageName, 0, w.OffsetMM, layout.ImageWidthMM, layout.ImageHeightMM, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
