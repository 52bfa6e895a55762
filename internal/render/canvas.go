package render

import (
	"golang.org/x/net/html"

	"resumify/internal/resume"
)

// canvas: 衬线字体的通栏经典版式。
func canvas(d resume.Data) *html.Node {
	p := d.Personal
	title := func(t string) *html.Node {
		return textEl("h2", attrs("class", "rs-section-title", "style", css("font-size:18px", "font-weight:700", "text-transform:uppercase", "letter-spacing:0.05em", "border-bottom:1px solid #d1d5db", "margin:0 0 12px", "color:#1f2937", "font-family:"+sansFont)), t)
	}

	var avatar *html.Node
	if p.AvatarURL != "" {
		avatar = img(p.AvatarURL, p.FullName, "rs-avatar", css("display:block", "width:96px", "height:96px", "border-radius:9999px", "object-fit:cover", "margin:0 auto 16px", "border:2px solid #e5e7eb"))
	}

	var contact *html.Node
	if hasContact(p) {
		contact = div(attrs("class", "rs-contact-bar", "style", css("display:flex", "flex-wrap:wrap", "justify-content:center", "gap:16px", "font-size:14px", "color:#6b7280", "font-family:"+sansFont)))
		if p.Email != "" {
			contact.AppendChild(textEl("span", nil, p.Email))
		}
		for _, v := range []string{p.Phone, p.Location, p.Website} {
			if v != "" {
				contact.AppendChild(textEl("span", nil, "• "+v))
			}
		}
	}

	var summary *html.Node
	if p.Summary != "" {
		summary = section("profile", css("margin-bottom:32px"), title("Professional Summary"),
			textEl("p", attrs("class", "rs-summary", "style", css("line-height:1.625", "color:#374151", "margin:0")), p.Summary))
	}

	var experience *html.Node
	if len(d.Experience) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:24px")))
		for _, e := range d.Experience {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				div(attrs("style", css("display:flex", "justify-content:space-between", "align-items:baseline", "margin-bottom:4px", "font-family:"+sansFont)),
					textEl("h3", attrs("class", "rs-company", "style", css("font-weight:700", "color:#111827", "font-size:16px", "margin:0")), e.Company),
					textEl("span", attrs("class", "rs-date", "style", css("font-size:14px", "color:#6b7280")), period(e.StartDate, e.EndDate, e.Current, enDash)),
				),
				textEl("div", attrs("class", "rs-position", "style", css("font-style:italic", "color:#374151", "margin-bottom:8px")), e.Position),
				description(e.Description, css("font-size:14px", "line-height:1.625", "color:#4b5563", "margin:0", "font-family:"+sansFont)),
			))
		}
		experience = section("experience", css("margin-bottom:32px"), title("Experience"), list)
	}

	var education *html.Node
	if len(d.Education) > 0 {
		list := div(attrs("style", css("display:flex", "flex-direction:column", "gap:16px")))
		for _, e := range d.Education {
			list.AppendChild(div(attrs("class", "rs-entry", "data-entry-id", e.ID),
				textEl("h3", attrs("style", css("font-weight:700", "color:#111827", "font-size:16px", "margin:0")), e.Institution),
				textEl("div", attrs("style", css("color:#374151", "font-style:italic")), e.Degree),
				textEl("div", attrs("class", "rs-date", "style", css("font-size:14px", "color:#6b7280", "margin-top:4px", "font-family:"+sansFont)), period(e.StartDate, e.EndDate, e.Current, enDash)),
			))
		}
		education = section("education", "", title("Education"), list)
	}

	var skills *html.Node
	if len(d.Skills) > 0 {
		chips := div(attrs("style", css("display:flex", "flex-wrap:wrap", "gap:8px 16px", "font-size:14px", "color:#374151", "font-family:"+sansFont)))
		for _, sk := range d.Skills {
			chips.AppendChild(textEl("span", attrs("class", "rs-chip", "data-skill-id", sk.ID, "style", css("background:#f3f4f6", "padding:4px 8px", "border-radius:4px")), sk.Name))
		}
		skills = section("skills", "", title("Skills"), chips)
	}

	var links *html.Node
	if len(d.Links) > 0 {
		list := el("ul", attrs("style", css("list-style:disc inside", "padding:0", "margin:0", "font-size:14px", "color:#374151", "font-family:"+sansFont)))
		for _, l := range d.Links {
			list.AppendChild(el("li", attrs("class", "rs-link", "data-link-id", l.ID),
				textEl("span", attrs("style", css("font-weight:500")), l.Label+":"),
				txt(" "),
				textEl("a", attrs("href", "https://"+l.URL, "style", css("color:#1d4ed8")), l.URL),
			))
		}
		links = section("links", "", title("Links"), list)
	}

	var lower *html.Node
	if !allNil(education, skills, links) {
		var right *html.Node
		if !allNil(skills, links) {
			right = div(attrs("style", css("display:flex", "flex-direction:column", "gap:32px")), skills, links)
		}
		lower = div(attrs("class", "rs-grid", "style", css("display:grid", "grid-template-columns:1fr 1fr", "gap:32px")), education, right)
	}

	return div(attrs("class", "rs-page rs-canvas", "data-template", "CANVAS", "style", css("width:100%", "min-height:"+PageMinHeight, "background:#fff", "padding:48px", "box-sizing:border-box", "color:#111827", "font-family:"+serifFont)),
		el("header", attrs("class", "rs-header", "style", css("text-align:center", "border-bottom:2px solid #111827", "padding-bottom:24px", "margin-bottom:32px")),
			avatar,
			textEl("h1", attrs("class", "rs-name", "style", css("font-size:36px", "font-weight:700", "letter-spacing:0.025em", "margin:0 0 8px")), p.FullName),
			textEl("p", attrs("class", "rs-title", "style", css("font-size:18px", "font-style:italic", "color:#4b5563", "margin:0 0 16px")), p.Title),
			contact,
		),
		summary, experience, lower,
	)
}
