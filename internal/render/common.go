package render

import (
	"strconv"

	"golang.org/x/net/html"

	"resumify/internal/resume"
)

const (
	presentLabel = "Present"
	enDash       = " – "
	emDash       = " — "
	hyphen       = " - "
)

// period 生成 "开始 – 结束" 文本；current 为 true 时结束一律显示 Present。
func period(start, end string, current bool, sep string) string {
	if current {
		end = presentLabel
	}
	return start + sep + end
}

// 图标用字形代替矢量图，data-icon 标识语义。
var iconGlyphs = map[string]string{
	"mail":          "✉",
	"phone":         "☏",
	"map-pin":       "⌖",
	"globe":         "◍",
	"external-link": "↗",
	"briefcase":     "▣",
	"graduation":    "◆",
	"code":          "‹›",
	"pen-tool":      "✎",
	"layout":        "▤",
}

func icon(name, color string) *html.Node {
	style := ""
	if color != "" {
		style = css("color:" + color)
	}
	return span(attrs("class", "rs-icon", "data-icon", name, "aria-hidden", "true", "style", style), txt(iconGlyphs[name]))
}

func hasContact(p resume.Personal) bool {
	return p.Email != "" || p.Phone != "" || p.Location != "" || p.Website != ""
}

// contactBar 是单栏布局页眉中的联系方式行，全部为空时返回 nil。
func contactBar(p resume.Personal, centered bool) *html.Node {
	if p.Email == "" && p.Phone == "" && p.Location == "" {
		return nil
	}
	style := css("display:flex", "flex-wrap:wrap", "gap:16px", "font-size:14px", "color:#4b5563")
	if centered {
		style = css(style, "justify-content:center")
	}
	bar := div(attrs("class", "rs-contact-bar", "style", style))
	if p.Email != "" {
		bar.AppendChild(textEl("span", nil, p.Email))
	}
	if p.Phone != "" {
		bar.AppendChild(textEl("span", nil, "• "+p.Phone))
	}
	if p.Location != "" {
		bar.AppendChild(textEl("span", nil, "• "+p.Location))
	}
	return bar
}

// section 包装一个带 data-section 标记的区块。
func section(name, style string, children ...*html.Node) *html.Node {
	return el("section", attrs("class", "rs-section", "data-section", name, "style", style), children...)
}

func description(s, style string) *html.Node {
	if s == "" {
		return nil
	}
	return textEl("p", attrs("class", "rs-description", "style", css("white-space:pre-wrap", style)), s)
}

// skillWidth 返回技能条宽度，不做区间修正。
func skillWidth(level int) string {
	return strconv.FormatFloat(float64(level)*100/5, 'f', -1, 64) + "%"
}
