package render

import (
	"log/slog"

	"golang.org/x/net/html"

	"resumify/internal/catalog"
	"resumify/internal/resume"
)

var fontStacks = map[catalog.Font]string{
	catalog.FontSans:  `ui-sans-serif, system-ui, -apple-system, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif`,
	catalog.FontSerif: `ui-serif, Georgia, Cambria, "Times New Roman", Times, serif`,
	catalog.FontMono:  `ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", monospace`,
}

var (
	sansFont  = fontStacks[catalog.FontSans]
	serifFont = fontStacks[catalog.FontSerif]
	monoFont  = fontStacks[catalog.FontMono]
)

// spacing 对应三档密度：区块间距、条目间距、内边距。
type spacing struct {
	section int
	gap     int
	pad     int
}

var densities = map[catalog.Density]spacing{
	catalog.DensityCompact:  {section: 16, gap: 8, pad: 4},
	catalog.DensityNormal:   {section: 24, gap: 16, pad: 8},
	catalog.DensitySpacious: {section: 32, gap: 24, pad: 12},
}

// Dynamic 按 Design 参数渲染通用模板。
type Dynamic struct {
	Design catalog.Design
}

// dynamicStyle 是解析后的设计参数，未知取值已替换为默认值。
type dynamicStyle struct {
	catalog.Design
	heading string
	body    string
	space   spacing
}

func resolveDesign(d catalog.Design) dynamicStyle {
	log := slog.Default()

	heading, ok := fontStacks[d.FontHeading]
	if !ok {
		log.Warn("render: unknown heading font, using sans", slog.String("font", string(d.FontHeading)))
		heading = fontStacks[catalog.FontSans]
	}
	body, ok := fontStacks[d.FontBody]
	if !ok {
		log.Warn("render: unknown body font, using sans", slog.String("font", string(d.FontBody)))
		body = fontStacks[catalog.FontSans]
	}
	space, ok := densities[d.Density]
	if !ok {
		log.Warn("render: unknown density, using normal", slog.String("density", string(d.Density)))
		space = densities[catalog.DensityNormal]
	}

	switch d.Layout {
	case catalog.LayoutSidebarLeft, catalog.LayoutSidebarRight, catalog.LayoutSingleColumn:
	default:
		log.Warn("render: layout has no dedicated renderer, using single-column", slog.String("layout", string(d.Layout)))
		d.Layout = catalog.LayoutSingleColumn
	}
	switch d.HeaderStyle {
	case catalog.HeaderBanner, catalog.HeaderCentered, catalog.HeaderLeft:
	default:
		log.Warn("render: unknown header style, using left", slog.String("header_style", string(d.HeaderStyle)))
		d.HeaderStyle = catalog.HeaderLeft
	}

	return dynamicStyle{Design: d, heading: heading, body: body, space: space}
}

func (s dynamicStyle) sidebar() bool {
	return s.Layout == catalog.LayoutSidebarLeft || s.Layout == catalog.LayoutSidebarRight
}

// darkSidebar 表示左侧栏以主色填充、文字反白。
func (s dynamicStyle) darkSidebar() bool {
	return s.Layout == catalog.LayoutSidebarLeft
}

func (s dynamicStyle) icon(name, color string) *html.Node {
	if !s.ShowIcons {
		return nil
	}
	return icon(name, color)
}

func (r Dynamic) Render(d resume.Data) *html.Node {
	s := resolveDesign(r.Design)

	root := div(attrs(
		"class", "rs-page rs-dynamic",
		"data-layout", string(s.Layout),
		"data-header", string(s.HeaderStyle),
		"data-density", string(r.Design.Density),
		"style", css("display:flex", "flex-direction:column", "min-height:"+PageMinHeight, "background:#fff", "color:#1f2937", "font-family:"+s.body),
	))
	root.AppendChild(s.header(d.Personal))

	direction := "row"
	if s.Layout == catalog.LayoutSidebarRight {
		direction = "row-reverse"
	}
	body := div(attrs("class", "rs-body", "style", css("display:flex", "flex:1", "flex-direction:"+direction)))

	if s.sidebar() {
		asideStyle := css("width:33.333%", "padding:32px", "flex-shrink:0", "box-sizing:border-box", "background:#f9fafb", "border-left:1px solid #e5e7eb", "color:#1f2937")
		if s.darkSidebar() {
			asideStyle = css("width:33.333%", "padding:32px", "flex-shrink:0", "box-sizing:border-box", "background:"+s.ColorPrimary, "color:#fff")
		}
		body.AppendChild(el("aside", attrs("class", "rs-sidebar", "style", asideStyle), s.sidebarContent(d)))
		body.AppendChild(el("main", attrs("class", "rs-main", "style", css("width:66.667%", "padding:32px", "box-sizing:border-box")), s.mainContent(d)))
	} else {
		body.AppendChild(el("main", attrs("class", "rs-main", "style", css("width:100%", "max-width:768px", "margin:0 auto", "padding:32px", "box-sizing:border-box")), s.mainContent(d)))
	}

	root.AppendChild(body)
	return root
}

func (s dynamicStyle) header(p resume.Personal) *html.Node {
	var bar *html.Node
	if s.Layout == catalog.LayoutSingleColumn {
		bar = contactBar(p, s.HeaderStyle == catalog.HeaderCentered)
	}

	if s.HeaderStyle == catalog.HeaderBanner {
		var avatar *html.Node
		if p.AvatarURL != "" {
			avatar = img(p.AvatarURL, "Avatar", "rs-avatar", css("width:96px", "height:96px", "border-radius:9999px", "object-fit:cover", "border:4px solid rgba(255,255,255,0.3)"))
		}
		if bar != nil {
			bar.Attr = attrs("class", "rs-contact-bar", "style", css("display:flex", "flex-wrap:wrap", "gap:16px", "font-size:14px", "margin-top:16px", "color:rgba(255,255,255,0.85)"))
		}
		return el("header", attrs("class", "rs-header rs-header-banner", "style", css("padding:32px", "color:#fff", "background:"+s.ColorPrimary)),
			div(attrs("style", css("display:flex", "align-items:center", "gap:24px")),
				avatar,
				div(nil,
					textEl("h1", attrs("class", "rs-name", "style", css("font-size:36px", "font-weight:700", "margin:0 0 4px", "font-family:"+s.heading)), p.FullName),
					textEl("p", attrs("class", "rs-title", "style", css("font-size:18px", "opacity:0.9", "margin:0", "letter-spacing:0.025em")), p.Title),
				),
			),
			bar,
		)
	}

	centered := s.HeaderStyle == catalog.HeaderCentered
	headerStyle := css("padding:32px 32px 16px", "border-bottom:1px solid #f3f4f6")
	class := "rs-header rs-header-left"
	var avatar *html.Node
	if centered {
		headerStyle = css(headerStyle, "text-align:center")
		class = "rs-header rs-header-centered"
		if p.AvatarURL != "" {
			avatar = img(p.AvatarURL, "Avatar", "rs-avatar", css("display:block", "width:96px", "height:96px", "border-radius:9999px", "margin:0 auto 16px", "object-fit:cover", "border:1px solid #e5e7eb"))
		}
	}
	return el("header", attrs("class", class, "style", headerStyle),
		avatar,
		textEl("h1", attrs("class", "rs-name", "style", css("font-size:36px", "font-weight:700", "margin:0 0 8px", "color:"+s.ColorPrimary, "font-family:"+s.heading)), p.FullName),
		textEl("p", attrs("class", "rs-title", "style", css("font-size:18px", "font-weight:500", "color:#6b7280", "margin:0 0 16px")), p.Title),
		bar,
	)
}

func (s dynamicStyle) sidebarTitle(title string) *html.Node {
	style := css("text-transform:uppercase", "letter-spacing:0.1em", "font-size:12px", "font-weight:700", "margin:0 0 12px", "padding-bottom:4px", "border-bottom:1px solid #e5e7eb", "color:#9ca3af")
	if s.darkSidebar() {
		style = css("text-transform:uppercase", "letter-spacing:0.1em", "font-size:12px", "font-weight:700", "margin:0 0 12px", "padding-bottom:4px", "border-bottom:1px solid rgba(255,255,255,0.2)", "color:rgba(255,255,255,0.7)")
	}
	return textEl("h3", attrs("class", "rs-sidebar-title", "style", style), title)
}

func (s dynamicStyle) contactItem(iconName, value, link string) *html.Node {
	textColor, iconColor := "#4b5563", s.ColorPrimary
	if s.darkSidebar() {
		textColor, iconColor = "rgba(255,255,255,0.8)", s.ColorAccent
	}
	var content *html.Node
	if link != "" {
		content = textEl("a", attrs("href", link, "style", css("color:inherit")), value)
	} else {
		content = textEl("span", nil, value)
	}
	return div(attrs("class", "rs-contact-item", "style", css("display:flex", "align-items:center", "gap:8px", "font-size:14px", "color:"+textColor)),
		s.icon(iconName, iconColor),
		content,
	)
}

func (s dynamicStyle) sidebarContent(d resume.Data) *html.Node {
	p := d.Personal

	var avatar *html.Node
	if s.darkSidebar() && p.AvatarURL != "" {
		avatar = div(attrs("class", "rs-sidebar-avatar", "style", css("text-align:center", "margin-bottom:24px")),
			img(p.AvatarURL, "Avatar", "rs-avatar", css("display:block", "width:96px", "height:96px", "border-radius:9999px", "margin:0 auto 12px", "object-fit:cover", "border:4px solid rgba(255,255,255,0.2)")),
		)
	}

	var contact *html.Node
	if hasContact(p) || len(d.Links) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:8px")))
		if p.Email != "" {
			list.AppendChild(s.contactItem("mail", p.Email, ""))
		}
		if p.Phone != "" {
			list.AppendChild(s.contactItem("phone", p.Phone, ""))
		}
		if p.Location != "" {
			list.AppendChild(s.contactItem("map-pin", p.Location, ""))
		}
		if p.Website != "" {
			list.AppendChild(s.contactItem("globe", p.Website, ""))
		}
		for _, l := range d.Links {
			list.AppendChild(s.contactItem("external-link", l.Label, l.URL))
		}
		contact = section("contact", "", s.sidebarTitle("Contact"), list)
	}

	var skills *html.Node
	if len(d.Skills) > 0 {
		track := "#e5e7eb"
		if s.darkSidebar() {
			track = "rgba(255,255,255,0.2)"
		}
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:8px")))
		for _, sk := range d.Skills {
			list.AppendChild(div(attrs("class", "rs-skill", "data-skill-id", sk.ID),
				div(attrs("style", css("font-size:12px", "margin-bottom:4px")), textEl("span", nil, sk.Name)),
				div(attrs("class", "rs-skill-track", "style", css("height:4px", "border-radius:9999px", "background:"+track)),
					div(attrs("class", "rs-skill-fill", "style", css("height:100%", "border-radius:9999px", "width:"+skillWidth(sk.Level), "background-color:"+s.ColorAccent))),
				),
			))
		}
		skills = section("skills", "", s.sidebarTitle("Skills"), list)
	}

	var education *html.Node
	if len(d.Education) > 0 {
		sub, muted := "#4b5563", "#6b7280"
		if s.darkSidebar() {
			sub, muted = "rgba(255,255,255,0.8)", "rgba(255,255,255,0.6)"
		}
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:12px")))
		for _, e := range d.Education {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID, "style", css("font-size:14px")),
				textEl("div", attrs("style", css("font-weight:700")), e.Institution),
				textEl("div", attrs("style", css("color:"+sub)), e.Degree),
				textEl("div", attrs("class", "rs-date", "style", css("font-size:12px", "margin-top:4px", "color:"+muted)), period(e.StartDate, e.EndDate, e.Current, hyphen)),
			))
		}
		education = section("education", "", s.sidebarTitle("Education"), list)
	}

	return div(attrs("class", "rs-sidebar-content", "style", css("display:flex", "flex-direction:column", "gap:24px")),
		avatar, contact, skills, education,
	)
}

func (s dynamicStyle) sectionTitle(title, iconName string) *html.Node {
	return el("h3", attrs("class", "rs-section-title", "style", css(
		"font-size:14px", "font-weight:700", "text-transform:uppercase", "letter-spacing:0.05em",
		"margin:0 0 12px", "padding-bottom:4px",
		"border-bottom:2px solid "+s.ColorSecondary, "color:"+s.ColorPrimary, "font-family:"+s.heading,
	)),
		span(attrs("style", css("display:flex", "align-items:center", "gap:8px")),
			s.icon(iconName, ""),
			txt(title),
		),
	)
}

func (s dynamicStyle) mainContent(d resume.Data) *html.Node {
	var profile *html.Node
	if d.Personal.Summary != "" {
		profile = section("profile", "",
			s.sectionTitle("Profile", "briefcase"),
			textEl("p", attrs("class", "rs-summary", "style", css("font-size:14px", "line-height:1.625", "color:#374151", "margin:0")), d.Personal.Summary),
		)
	}

	var experience *html.Node
	if len(d.Experience) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:"+px(s.space.gap))))
		for _, e := range d.Experience {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				div(attrs("style", css("display:flex", "justify-content:space-between", "align-items:baseline", "margin-bottom:4px")),
					textEl("h4", attrs("class", "rs-position", "style", css("font-weight:700", "color:#111827", "margin:0")), e.Position),
					textEl("span", attrs("class", "rs-date", "style", css("font-size:12px", "color:#6b7280", "background:#f3f4f6", "padding:2px 8px", "border-radius:4px", "font-family:"+monoFont)), period(e.StartDate, e.EndDate, e.Current, enDash)),
				),
				textEl("div", attrs("class", "rs-company", "style", css("font-size:14px", "font-weight:500", "margin-bottom:8px", "color:"+s.ColorPrimary)), e.Company),
				description(e.Description, css("font-size:14px", "color:#4b5563", "line-height:1.625", "margin:0")),
			))
		}
		experience = section("experience", "", s.sectionTitle("Experience", "briefcase"), list)
	}

	var grid *html.Node
	if s.Layout == catalog.LayoutSingleColumn {
		var skills, education *html.Node
		if len(d.Skills) > 0 {
			chips := div(attrs("style", css("display:flex", "flex-wrap:wrap", "gap:8px")))
			for _, sk := range d.Skills {
				chips.AppendChild(textEl("span", attrs("class", "rs-chip", "data-skill-id", sk.ID, "style", css("padding:4px 8px", "background:#f3f4f6", "font-size:12px", "color:#374151", "border-radius:4px", "border:1px solid #e5e7eb")), sk.Name))
			}
			skills = section("skills", "", s.sectionTitle("Skills", "code"), chips)
		}
		if len(d.Education) > 0 {
			list := div(nil)
			for _, e := range d.Education {
				list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID, "style", css("margin-bottom:8px")),
					textEl("div", attrs("style", css("font-weight:700", "font-size:14px")), e.Institution),
					textEl("div", attrs("style", css("font-size:12px", "color:#4b5563")), e.Degree),
				))
			}
			education = section("education", "", s.sectionTitle("Education", "graduation"), list)
		}
		if !allNil(skills, education) {
			grid = div(attrs("class", "rs-grid", "style", css("display:grid", "grid-template-columns:1fr 1fr", "gap:32px")), skills, education)
		}
	}

	return div(attrs("class", "rs-main-content", "style", css("display:flex", "flex-direction:column", "gap:"+px(s.space.section), "padding:"+px(s.space.pad)+" 0")),
		profile, experience, grid,
	)
}
