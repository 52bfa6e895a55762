package render

import (
	"golang.org/x/net/html"

	"resumify/internal/resume"
)

const (
	emerald900 = "#064e3b"
	emerald700 = "#047857"
	emerald400 = "#34d399"
)

// horizonSidebar: 35% 深绿侧栏 + 65% 时间线主栏。
func horizonSidebar(d resume.Data) *html.Node {
	p := d.Personal
	sideTitle := func(t string) *html.Node {
		return textEl("h3", attrs("class", "rs-sidebar-title", "style", css("font-size:12px", "font-weight:700", "text-transform:uppercase", "letter-spacing:0.1em", "color:#a7f3d0", "border-bottom:1px solid #065f46", "padding-bottom:8px", "margin:0 0 12px")), t)
	}
	mainTitle := func(iconName, t string) *html.Node {
		return el("h2", attrs("class", "rs-section-title", "style", css("display:flex", "align-items:center", "gap:8px", "font-size:20px", "font-weight:700", "color:"+emerald900, "margin:0 0 16px", "font-family:"+serifFont)),
			icon(iconName, emerald700), txt(t))
	}

	var avatar *html.Node
	if p.AvatarURL != "" {
		avatar = img(p.AvatarURL, p.FullName, "rs-avatar", css("display:block", "width:128px", "height:128px", "border-radius:9999px", "object-fit:cover", "border:4px solid "+emerald400, "margin:0 auto"))
	}

	var contact *html.Node
	if hasContact(p) {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:8px", "font-size:12px", "color:#d1fae5")))
		for _, c := range []struct{ icon, value string }{
			{"mail", p.Email}, {"phone", p.Phone}, {"map-pin", p.Location}, {"globe", p.Website},
		} {
			if c.value != "" {
				list.AppendChild(div(attrs("class", "rs-contact-item", "style", css("display:flex", "align-items:center", "gap:8px")),
					icon(c.icon, emerald400), textEl("span", attrs("style", css("word-break:break-all")), c.value)))
			}
		}
		contact = section("contact", "", sideTitle("Contact"), list)
	}

	var skills *html.Node
	if len(d.Skills) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:12px")))
		for _, sk := range d.Skills {
			list.AppendChild(div(attrs("class", "rs-skill", "data-skill-id", sk.ID),
				textEl("div", attrs("style", css("font-size:12px", "margin-bottom:4px", "color:#ecfdf5")), sk.Name),
				div(attrs("class", "rs-skill-track", "style", css("width:100%", "height:4px", "border-radius:9999px", "background:#065f46")),
					div(attrs("class", "rs-skill-fill", "style", css("height:4px", "border-radius:9999px", "width:"+skillWidth(sk.Level), "background-color:"+emerald400))),
				),
			))
		}
		skills = section("skills", "", sideTitle("Skills"), list)
	}

	var education *html.Node
	if len(d.Education) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:12px")))
		for _, e := range d.Education {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				textEl("div", attrs("style", css("font-weight:700", "font-size:14px", "color:#fff")), e.Degree),
				textEl("div", attrs("style", css("font-size:12px", "color:#a7f3d0")), e.Institution),
				textEl("div", attrs("class", "rs-date", "style", css("font-size:10px", "color:#6ee7b7", "margin-top:2px")), period(e.StartDate, e.EndDate, e.Current, enDash)),
			))
		}
		education = section("education", "", sideTitle("Education"), list)
	}

	var links *html.Node
	if len(d.Links) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:8px", "font-size:12px")))
		for _, l := range d.Links {
			list.AppendChild(div(attrs("class", "rs-link", "data-link-id", l.ID, "style", css("display:flex", "align-items:center", "gap:8px")),
				icon("external-link", emerald400),
				textEl("a", attrs("href", l.URL, "style", css("color:#d1fae5", "text-decoration:none")), l.Label),
			))
		}
		links = section("links", "", sideTitle("Links"), list)
	}

	var profile *html.Node
	if p.Summary != "" {
		profile = section("profile", "", mainTitle("layout", "Profile"),
			textEl("p", attrs("class", "rs-summary", "style", css("font-size:14px", "line-height:1.625", "color:#374151", "margin:0")), p.Summary))
	}

	var experience *html.Node
	if len(d.Experience) > 0 {
		list := div(attrs("class", "rs-timeline", "style", css("display:flex", "flex-direction:column", "gap:24px", "border-left:2px solid #d1fae5", "padding-left:20px")))
		for _, e := range d.Experience {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID, "style", css("position:relative")),
				span(attrs("class", "rs-timeline-dot", "style", css("position:absolute", "left:-27px", "top:6px", "width:12px", "height:12px", "border-radius:9999px", "background:"+emerald700, "border:2px solid #fff"))),
				textEl("h3", attrs("class", "rs-position", "style", css("font-size:16px", "font-weight:700", "color:#111827", "margin:0")), e.Position),
				div(attrs("style", css("display:flex", "justify-content:space-between", "align-items:baseline", "margin:2px 0 8px")),
					textEl("span", attrs("class", "rs-company", "style", css("font-size:14px", "font-weight:600", "color:"+emerald700)), e.Company),
					textEl("span", attrs("class", "rs-date", "style", css("font-size:12px", "color:#6b7280")), period(e.StartDate, e.EndDate, e.Current, emDash)),
				),
				description(e.Description, css("font-size:14px", "line-height:1.625", "color:#4b5563", "margin:0")),
			))
		}
		experience = section("experience", "", mainTitle("briefcase", "Experience"), list)
	}

	return div(attrs("class", "rs-page rs-horizon", "data-template", "HORIZON", "style", css("display:flex", "width:100%", "min-height:"+PageMinHeight, "background:#fff", "font-family:"+sansFont)),
		el("aside", attrs("class", "rs-sidebar", "style", css("width:35%", "background:"+emerald900, "color:#fff", "padding:32px 24px", "box-sizing:border-box", "display:flex", "flex-direction:column", "gap:28px")),
			avatar, contact, skills, education, links,
		),
		el("main", attrs("class", "rs-main", "style", css("width:65%", "padding:40px 32px", "box-sizing:border-box", "display:flex", "flex-direction:column", "gap:32px")),
			el("header", attrs("class", "rs-header", "style", css("border-left:4px solid "+emerald700, "padding-left:16px")),
				textEl("h1", attrs("class", "rs-name", "style", css("font-size:36px", "font-weight:700", "color:"+emerald900, "margin:0", "font-family:"+serifFont)), p.FullName),
				textEl("p", attrs("class", "rs-title", "style", css("font-size:18px", "color:"+emerald700, "margin:4px 0 0", "letter-spacing:0.025em")), p.Title),
			),
			profile, experience,
		),
	)
}

// horizonSingle: 绿色横幅页眉、浮动联系条，正文单栏。
func horizonSingle(d resume.Data) *html.Node {
	p := d.Personal
	title := func(t string) *html.Node {
		return textEl("h2", attrs("class", "rs-section-title", "style", css("font-size:14px", "font-weight:700", "text-transform:uppercase", "letter-spacing:0.1em", "color:"+emerald700, "border-bottom:2px solid #d1fae5", "padding-bottom:6px", "margin:0 0 16px")), t)
	}

	var avatar *html.Node
	if p.AvatarURL != "" {
		avatar = img(p.AvatarURL, p.FullName, "rs-avatar", css("width:112px", "height:112px", "border-radius:9999px", "object-fit:cover", "border:4px solid #fff"))
	}

	var contact *html.Node
	if hasContact(p) {
		bar := div(attrs("class", "rs-contact-bar", "style", css("display:flex", "flex-wrap:wrap", "justify-content:center", "gap:24px", "margin:-24px 48px 0", "padding:12px 24px", "background:#fff", "border-radius:8px", "box-shadow:0 4px 12px rgba(0,0,0,0.08)", "font-size:12px", "color:#374151", "position:relative")))
		for _, c := range []struct{ icon, value string }{
			{"mail", p.Email}, {"phone", p.Phone}, {"map-pin", p.Location}, {"globe", p.Website},
		} {
			if c.value != "" {
				bar.AppendChild(span(attrs("class", "rs-contact-item", "style", css("display:inline-flex", "align-items:center", "gap:6px")),
					icon(c.icon, emerald700), txt(c.value)))
			}
		}
		contact = bar
	}

	var profile *html.Node
	if p.Summary != "" {
		profile = section("profile", "", title("Professional Profile"),
			textEl("p", attrs("class", "rs-summary", "style", css("font-size:14px", "line-height:1.7", "color:#374151", "margin:0")), p.Summary))
	}

	var experience *html.Node
	if len(d.Experience) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:20px")))
		for _, e := range d.Experience {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID, "style", css("display:grid", "grid-template-columns:120px 1fr", "gap:16px")),
				textEl("div", attrs("class", "rs-date", "style", css("font-size:12px", "color:#6b7280", "padding-top:2px")), period(e.StartDate, e.EndDate, e.Current, enDash)),
				div(nil,
					textEl("h3", attrs("class", "rs-position", "style", css("font-size:16px", "font-weight:700", "color:#111827", "margin:0")), e.Position),
					textEl("div", attrs("class", "rs-company", "style", css("font-size:14px", "font-weight:600", "color:"+emerald700, "margin:2px 0 6px")), e.Company),
					description(e.Description, css("font-size:14px", "line-height:1.625", "color:#4b5563", "margin:0")),
				),
			))
		}
		experience = section("experience", "", title("Work Experience"), list)
	}

	var skills *html.Node
	if len(d.Skills) > 0 {
		chips := div(attrs("style", css("display:flex", "flex-wrap:wrap", "gap:8px")))
		for _, sk := range d.Skills {
			chips.AppendChild(textEl("span", attrs("class", "rs-chip", "data-skill-id", sk.ID, "style", css("background:#ecfdf5", "color:"+emerald900, "border:1px solid #a7f3d0", "padding:4px 10px", "border-radius:9999px", "font-size:12px")), sk.Name))
		}
		skills = section("skills", "", title("Skills"), chips)
	}

	var education *html.Node
	if len(d.Education) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:12px")))
		for _, e := range d.Education {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				textEl("div", attrs("style", css("font-weight:700", "font-size:14px", "color:#111827")), e.Institution),
				textEl("div", attrs("style", css("font-size:14px", "color:#4b5563")), e.Degree),
				textEl("div", attrs("class", "rs-date", "style", css("font-size:12px", "color:#9ca3af")), period(e.StartDate, e.EndDate, e.Current, enDash)),
			))
		}
		education = section("education", "", title("Education"), list)
	}

	var lower *html.Node
	if !allNil(skills, education) {
		lower = div(attrs("class", "rs-grid", "style", css("display:grid", "grid-template-columns:1fr 1fr", "gap:32px")), skills, education)
	}

	return div(attrs("class", "rs-page rs-horizon-minimal", "data-template", "HORIZON_MINIMAL", "style", css("width:100%", "min-height:"+PageMinHeight, "background:#fff", "font-family:"+sansFont)),
		el("header", attrs("class", "rs-header rs-header-banner", "style", css("display:flex", "align-items:center", "gap:24px", "background:"+emerald900, "color:#fff", "padding:40px 48px 48px")),
			avatar,
			div(nil,
				textEl("h1", attrs("class", "rs-name", "style", css("font-size:36px", "font-weight:700", "margin:0", "font-family:"+serifFont)), p.FullName),
				textEl("p", attrs("class", "rs-title", "style", css("font-size:18px", "color:#a7f3d0", "margin:4px 0 0")), p.Title),
			),
		),
		contact,
		div(attrs("class", "rs-body", "style", css("padding:32px 48px", "display:flex", "flex-direction:column", "gap:28px")),
			profile, experience, lower,
		),
	)
}
