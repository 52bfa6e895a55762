package render

import (
	"strconv"

	"golang.org/x/net/html"

	"resumify/internal/resume"
)

const quartzBlue = "#2563eb"

// quartz: 顶部页眉 + 2/3 主栏 + 1/3 右栏。
func quartz(d resume.Data) *html.Node {
	p := d.Personal
	title := func(t string) *html.Node {
		return textEl("h3", attrs("class", "rs-section-title", "style", css("font-size:14px", "font-weight:700", "text-transform:uppercase", "letter-spacing:0.1em", "color:#94a3b8", "margin:0 0 12px")), t)
	}

	var avatar *html.Node
	if p.AvatarURL != "" {
		avatar = img(p.AvatarURL, p.FullName, "rs-avatar", css("width:96px", "height:96px", "border-radius:9999px", "object-fit:cover", "border:1px solid #e2e8f0"))
	}

	var contact *html.Node
	if hasContact(p) {
		contact = div(attrs("class", "rs-contact", "style", css("text-align:right", "font-size:12px", "color:#64748b")))
		for _, v := range []string{p.Email, p.Phone, p.Location} {
			if v != "" {
				contact.AppendChild(textEl("p", attrs("style", css("margin:0 0 4px")), v))
			}
		}
		if p.Website != "" {
			contact.AppendChild(textEl("p", attrs("style", css("margin:0", "color:"+quartzBlue)), p.Website))
		}
	}

	var about *html.Node
	if p.Summary != "" {
		about = section("profile", "", title("About Me"),
			textEl("p", attrs("class", "rs-summary", "style", css("font-size:14px", "line-height:1.625", "color:#334155", "margin:0")), p.Summary))
	}

	var experience *html.Node
	if len(d.Experience) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:24px")))
		for _, e := range d.Experience {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				div(attrs("style", css("display:flex", "justify-content:space-between", "align-items:baseline", "margin-bottom:4px")),
					textEl("h4", attrs("class", "rs-position", "style", css("font-weight:700", "color:#1e293b", "margin:0")), e.Position),
					textEl("span", attrs("class", "rs-date", "style", css("font-size:12px", "color:#64748b", "font-style:italic")), period(e.StartDate, e.EndDate, e.Current, enDash)),
				),
				textEl("div", attrs("class", "rs-company", "style", css("font-size:14px", "font-weight:500", "margin-bottom:8px", "color:"+quartzBlue)), e.Company),
				description(e.Description, css("font-size:14px", "color:#475569", "line-height:1.625", "margin:0")),
			))
		}
		experience = section("experience", "", title("Experience"), list)
	}

	var skills *html.Node
	if len(d.Skills) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:16px")))
		for _, sk := range d.Skills {
			list.AppendChild(div(attrs("class", "rs-skill", "data-skill-id", sk.ID),
				div(attrs("style", css("display:flex", "justify-content:space-between", "align-items:center", "margin-bottom:4px")),
					textEl("span", attrs("style", css("font-size:14px", "font-weight:500", "color:#334155")), sk.Name),
					textEl("span", attrs("class", "rs-skill-level", "style", css("font-size:12px", "color:#94a3b8", "font-family:"+monoFont)), strconv.Itoa(sk.Level)+"/5"),
				),
				div(attrs("class", "rs-skill-track", "style", css("width:100%", "height:6px", "border-radius:9999px", "background:#f1f5f9")),
					div(attrs("class", "rs-skill-fill", "style", css("height:6px", "border-radius:9999px", "width:"+skillWidth(sk.Level), "background-color:"+quartzBlue))),
				),
			))
		}
		skills = section("skills", "", title("Skills"), list)
	}

	var education *html.Node
	if len(d.Education) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:16px")))
		for _, e := range d.Education {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				textEl("div", attrs("style", css("font-weight:700", "font-size:14px", "color:#1e293b")), e.Institution),
				textEl("div", attrs("style", css("font-size:14px", "color:#475569")), e.Degree),
				textEl("div", attrs("class", "rs-date", "style", css("font-size:12px", "color:#94a3b8", "margin-top:4px")), period(e.StartDate, e.EndDate, e.Current, enDash)),
			))
		}
		education = section("education", "", title("Education"), list)
	}

	var links *html.Node
	if len(d.Links) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:8px")))
		for _, l := range d.Links {
			list.AppendChild(div(attrs("class", "rs-link", "data-link-id", l.ID),
				textEl("div", attrs("style", css("font-size:12px", "color:#64748b", "text-transform:uppercase")), l.Label),
				textEl("a", attrs("href", "https://"+l.URL, "style", css("font-size:14px", "word-break:break-all", "color:"+quartzBlue)), l.URL),
			))
		}
		links = section("links", "", title("Connect"), list)
	}

	return div(attrs("class", "rs-page rs-quartz", "data-template", "QUARTZ", "style", css("width:100%", "min-height:"+PageMinHeight, "background:#fff", "padding:40px", "box-sizing:border-box", "color:#1e293b", "font-family:"+sansFont)),
		el("header", attrs("class", "rs-header", "style", css("display:flex", "justify-content:space-between", "align-items:flex-end", "border-bottom:1px solid #cbd5e1", "padding-bottom:32px", "margin-bottom:32px")),
			div(attrs("style", css("display:flex", "align-items:center", "gap:24px")),
				avatar,
				div(nil,
					textEl("h1", attrs("class", "rs-name", "style", css("font-size:36px", "font-weight:300", "color:#0f172a", "margin:0 0 8px")), p.FullName),
					textEl("p", attrs("class", "rs-title", "style", css("font-size:18px", "font-weight:500", "margin:0", "color:"+quartzBlue)), p.Title),
				),
			),
			contact,
		),
		div(attrs("class", "rs-body", "style", css("display:flex", "gap:40px")),
			el("main", attrs("class", "rs-main", "style", css("width:66.667%", "display:flex", "flex-direction:column", "gap:32px")), about, experience),
			el("aside", attrs("class", "rs-sidebar", "style", css("width:33.333%", "display:flex", "flex-direction:column", "gap:32px")), skills, education, links),
		),
	)
}
