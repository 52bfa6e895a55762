package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// el 构造一个元素节点，nil 子节点会被跳过，便于按条件省略区块。
func el(tag string, attr []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attr,
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

func txt(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// attrs 按顺序接收 key/value 对；顺序固定，保证输出稳定。
func attrs(kv ...string) []html.Attribute {
	if len(kv)%2 != 0 {
		panic("render: attrs needs key/value pairs")
	}
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return out
}

func div(attr []html.Attribute, children ...*html.Node) *html.Node {
	return el("div", attr, children...)
}

func span(attr []html.Attribute, children ...*html.Node) *html.Node {
	return el("span", attr, children...)
}

// textEl 生成只含一段文本的元素。
func textEl(tag string, attr []html.Attribute, s string) *html.Node {
	return el(tag, attr, txt(s))
}

func img(src, alt, class, style string) *html.Node {
	return el("img", attrs("src", src, "alt", alt, "class", class, "style", style))
}

// css 把声明按传入顺序拼成内联样式。
func css(decls ...string) string {
	return strings.Join(decls, ";")
}

func px(v int) string {
	return fmt.Sprintf("%dpx", v)
}

// allNil 在所有子节点都为 nil 时返回 true。
func allNil(nodes ...*html.Node) bool {
	for _, n := range nodes {
		if n != nil {
			return false
		}
	}
	return true
}

// HTML 将节点树序列化为字符串。
func HTML(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return b.String(), nil
}
