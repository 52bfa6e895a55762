package thumbnail

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"resumify/internal/catalog"
	"resumify/internal/render"
	"resumify/internal/resume"
)

// Frame 把全尺寸渲染结果放进 794px 宽的盒子并按比例缩放，锚点在左上角。
// node 会被深拷贝，原树不受影响。
func Frame(node *html.Node, scale float64) *html.Node {
	w, h := Size(scale)

	inner := element("div", []html.Attribute{
		{Key: "class", Val: "rs-thumbnail-canvas"},
		{Key: "style", Val: strings.Join([]string{
			fmt.Sprintf("width:%dpx", ReferenceWidth),
			fmt.Sprintf("min-height:%dpx", ReferenceHeight),
			"transform:" + Transform(scale),
			"transform-origin:top left",
			"pointer-events:none",
			"user-select:none",
		}, ";")},
	})
	if node != nil {
		inner.AppendChild(clone(node))
	}

	outer := element("div", []html.Attribute{
		{Key: "class", Val: "rs-thumbnail"},
		{Key: "data-scale", Val: fmt.Sprintf("%g", scale)},
		{Key: "style", Val: fmt.Sprintf("position:relative;overflow:hidden;width:%dpx;height:%dpx;background:#fff", w, h)},
	})
	outer.AppendChild(inner)
	return outer
}

// Document 生成模板缩略图页面，width 是容器宽度，无效时使用初始比例。
func Document(t catalog.Template, d resume.Data, width float64) *html.Node {
	scale, ok := ScaleFor(width)
	if !ok {
		scale = InitialScale
	}
	return render.Document(Frame(render.For(t).Render(d), scale), render.DocumentOptions{Title: t.Name})
}

func element(tag string, attr []html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag)), Attr: attr}
}

func clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(clone(child))
	}
	return c
}
