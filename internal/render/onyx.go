package render

import (
	"golang.org/x/net/html"

	"resumify/internal/resume"
)

// onyx: 深色左侧栏 + 白色主栏，也是未知模板的回落样式。
func onyx(d resume.Data) *html.Node {
	p := d.Personal
	sideTitle := func(t string) *html.Node {
		return textEl("h3", attrs("class", "rs-sidebar-title", "style", css("color:#64748b", "text-transform:uppercase", "letter-spacing:0.1em", "font-size:12px", "font-weight:700", "border-bottom:1px solid #334155", "padding-bottom:8px", "margin:0 0 16px")), t)
	}
	mainTitle := func(t string) *html.Node {
		return textEl("h2", attrs("class", "rs-section-title", "style", css("font-size:20px", "font-weight:700", "text-transform:uppercase", "letter-spacing:0.05em", "color:#0f172a", "border-bottom:2px solid #0f172a", "padding-bottom:4px", "margin:0 0 12px")), t)
	}
	contactLine := func(iconName string, content *html.Node) *html.Node {
		return div(attrs("class", "rs-contact-item", "style", css("display:flex", "align-items:center", "gap:8px")), icon(iconName, ""), content)
	}

	var avatar *html.Node
	if p.AvatarURL != "" {
		avatar = img(p.AvatarURL, "Profile", "rs-avatar", css("display:block", "width:128px", "height:128px", "border-radius:9999px", "object-fit:cover", "border:4px solid #334155", "margin:0 auto"))
	}

	var contact *html.Node
	if hasContact(p) || len(d.Links) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:12px", "color:#cbd5e1", "font-size:12px")))
		if p.Email != "" {
			list.AppendChild(contactLine("mail", textEl("span", nil, p.Email)))
		}
		if p.Phone != "" {
			list.AppendChild(contactLine("phone", textEl("span", nil, p.Phone)))
		}
		if p.Location != "" {
			list.AppendChild(contactLine("map-pin", textEl("span", nil, p.Location)))
		}
		if p.Website != "" {
			list.AppendChild(contactLine("globe", textEl("span", nil, p.Website)))
		}
		for _, l := range d.Links {
			list.AppendChild(contactLine("external-link", textEl("a", attrs("href", l.URL, "style", css("color:inherit")), l.Label)))
		}
		contact = section("contact", "", sideTitle("Contact"), list)
	}

	var skills *html.Node
	if len(d.Skills) > 0 {
		chips := div(attrs("style", css("display:flex", "flex-wrap:wrap", "gap:8px")))
		for _, sk := range d.Skills {
			chips.AppendChild(textEl("span", attrs("class", "rs-chip", "data-skill-id", sk.ID, "style", css("background:#1e293b", "color:#e2e8f0", "padding:4px 8px", "border-radius:4px", "font-size:12px")), sk.Name))
		}
		skills = section("skills", "", sideTitle("Skills"), chips)
	}

	var education *html.Node
	if len(d.Education) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:12px")))
		for _, e := range d.Education {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				textEl("div", attrs("style", css("color:#fff", "font-weight:500")), e.Institution),
				textEl("div", attrs("style", css("color:#94a3b8", "font-size:12px")), e.Degree),
				textEl("div", attrs("class", "rs-date", "style", css("color:#64748b", "font-size:10px")), period(e.StartDate, e.EndDate, e.Current, hyphen)),
			))
		}
		education = section("education", "", sideTitle("Education"), list)
	}

	var profile *html.Node
	if p.Summary != "" {
		profile = section("profile", "", mainTitle("Profile"),
			textEl("p", attrs("class", "rs-summary", "style", css("color:#475569", "line-height:1.625", "font-size:14px", "margin:0")), p.Summary),
		)
	}

	var experience *html.Node
	if len(d.Experience) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:24px")))
		for _, e := range d.Experience {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID, "style", css("padding-left:16px", "border-left:2px solid #e2e8f0")),
				div(attrs("style", css("display:flex", "justify-content:space-between", "align-items:baseline", "margin-bottom:4px")),
					textEl("h3", attrs("class", "rs-position", "style", css("font-weight:700", "font-size:18px", "color:#1e293b", "margin:0")), e.Position),
					textEl("span", attrs("class", "rs-date", "style", css("font-size:12px", "color:#64748b", "white-space:nowrap", "background:#f1f5f9", "padding:2px 8px", "border-radius:4px")), period(e.StartDate, e.EndDate, e.Current, emDash)),
				),
				textEl("div", attrs("class", "rs-company", "style", css("color:#475569", "font-weight:500", "margin-bottom:8px", "font-size:14px")), e.Company),
				description(e.Description, css("color:#475569", "font-size:14px", "line-height:1.625", "margin:0")),
			))
		}
		experience = section("experience", "", mainTitle("Work Experience"), list)
	}

	return div(attrs("class", "rs-page rs-onyx", "data-template", "ONYX", "style", css("display:flex", "width:100%", "min-height:"+PageMinHeight, "background:#fff", "font-size:14px", "font-family:"+sansFont)),
		el("aside", attrs("class", "rs-sidebar", "style", css("width:33.333%", "background:#0f172a", "color:#fff", "padding:32px", "box-sizing:border-box", "display:flex", "flex-direction:column", "gap:32px")),
			div(attrs("class", "rs-header", "style", css("display:flex", "flex-direction:column", "gap:16px")),
				avatar,
				textEl("h1", attrs("class", "rs-name", "style", css("font-size:30px", "font-weight:700", "text-transform:uppercase", "letter-spacing:0.1em", "text-align:center", "line-height:1.25", "margin:0")), p.FullName),
				textEl("p", attrs("class", "rs-title", "style", css("color:#94a3b8", "text-align:center", "text-transform:uppercase", "letter-spacing:0.025em", "font-size:12px", "font-weight:600", "margin:0")), p.Title),
			),
			contact, skills, education,
		),
		el("main", attrs("class", "rs-main", "style", css("width:66.667%", "padding:32px", "box-sizing:border-box", "color:#1e293b")),
			div(attrs("style", css("display:flex", "flex-direction:column", "gap:32px")), profile, experience),
		),
	)
}
