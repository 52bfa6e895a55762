package resume

// Sample 返回新建草稿与模板缩略图使用的示例简历。
// 每个列表末尾保留一条空白条目，供编辑器直接填写。ID 固定，
// 同一模板的缩略图与预览框每次渲染结果一致。
func Sample() Data {
	return Data{
		Personal: Personal{
			FullName: "Alex Morgan",
			Title:    "Senior Product Designer",
			Email:    "alex.morgan@example.com",
			Phone:    "+1 (555) 123-4567",
			Location: "San Francisco, CA",
			Summary:  "Creative and detail-oriented Product Designer with over 6 years of experience in building user-centric digital products. Proficient in translating complex requirements into intuitive and visually appealing designs. Passionate about design systems and accessibility.",
			Website:  "www.alexmorgan.design",
		},
		Experience: []Experience{
			{
				ID:          "1",
				Company:     "TechFlow Solutions",
				Position:    "Senior UI/UX Designer",
				StartDate:   "2021-03",
				Current:     true,
				Description: "• Led the redesign of the core SaaS platform, increasing user engagement by 40%.\n• Mentored a team of 3 junior designers and established a unified design system.\n• Collaborated closely with engineering and product teams to deliver features on time.",
			},
			{
				ID:          "2",
				Company:     "Creative Pulse Agency",
				Position:    "Product Designer",
				StartDate:   "2018-06",
				EndDate:     "2021-02",
				Description: "• Designed responsive websites and mobile apps for diverse clients in fintech and healthcare.\n• Conducted user research and usability testing to iterate on design concepts.\n• Facilitated design workshops with stakeholders to define product vision.",
			},
			{ID: "3"},
		},
		Education: []Education{
			{
				ID:          "1",
				Institution: "California College of the Arts",
				Degree:      "BFA in Interaction Design",
				StartDate:   "2014-09",
				EndDate:     "2018-05",
				Description: "Graduated with High Honors. Focus on human-computer interaction and visual design.",
			},
			{ID: "2"},
		},
		Skills: []Skill{
			{ID: "1", Name: "Figma", Level: 5},
			{ID: "2", Name: "Prototyping", Level: 5},
			{ID: "3", Name: "HTML/CSS", Level: 4},
			{ID: "4", Name: "React Basic", Level: 3},
			{ID: "5", Name: "User Research", Level: 4},
			{ID: "6", Name: "Design Systems", Level: 5},
			{ID: "7", Level: 1},
		},
		Links: []Link{
			{ID: "1", Label: "LinkedIn", URL: "linkedin.com/in/alexmorgan"},
			{ID: "2", Label: "Dribbble", URL: "dribbble.com/alexmorgan"},
		},
	}
}
