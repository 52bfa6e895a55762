package render

import (
	"golang.org/x/net/html"

	"resumify/internal/catalog"
	"resumify/internal/resume"
)

const (
	// TargetID 是导出时截图的根元素 id。
	TargetID       = "resume-export-content"
	TargetSelector = "#" + TargetID

	PageWidthPx  = 794
	PageHeightPx = 1123

	// PageMinHeight 以毫米给出 A4 高度；1123px 比 297mm 高出零点几像素。
	PageMinHeight = "297mm"

	PreviewWatermark = "Powered by Resumify"
	ExportWatermark  = "Created with Resumify"
)

const stylesheet = `*,*::before,*::after{box-sizing:border-box}
html,body{margin:0;padding:0;background:#fff}
body{-webkit-print-color-adjust:exact;print-color-adjust:exact;-webkit-font-smoothing:antialiased}
h1,h2,h3,h4,p{margin:0}
a{text-decoration:none}
.rs-icon{display:inline-block;width:1em;text-align:center;line-height:1}
.rs-section{break-inside:avoid-page}
.rs-watermark{position:absolute;right:16px;bottom:12px;font:500 10px/1 ui-sans-serif,system-ui,sans-serif;color:#9ca3af;opacity:0.8;letter-spacing:0.05em}`

// DocumentOptions 控制完整页面的外围内容。Watermark 为空时不加水印。
type DocumentOptions struct {
	Title     string
	Watermark string
}

// Document 把渲染结果包进完整的 HTML 文档，内容固定在 794px 宽的导出根节点中。
// content 会被挂到新树上，调用方不应再复用它。
func Document(content *html.Node, opts DocumentOptions) *html.Node {
	title := opts.Title
	if title == "" {
		title = "Resume"
	}

	var watermark *html.Node
	if opts.Watermark != "" {
		watermark = textEl("div", attrs("class", "rs-watermark", "data-watermark", "true"), opts.Watermark)
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(el("html", attrs("lang", "en"),
		el("head", nil,
			el("meta", attrs("charset", "utf-8")),
			el("meta", attrs("name", "viewport", "content", "width="+px(PageWidthPx))),
			textEl("title", nil, title),
			textEl("style", nil, stylesheet),
		),
		el("body", nil,
			div(attrs("id", TargetID, "style", css("position:relative", "width:"+px(PageWidthPx), "min-height:"+PageMinHeight, "margin:0 auto", "background:#fff", "overflow:hidden")),
				content,
				watermark,
			),
		),
	))
	return doc
}

// Page 渲染一个模板并生成完整文档。
func Page(t catalog.Template, d resume.Data, opts DocumentOptions) *html.Node {
	if opts.Title == "" && d.Personal.FullName != "" {
		opts.Title = d.Personal.FullName + " - " + t.Name
	}
	return Document(For(t).Render(d), opts)
}
