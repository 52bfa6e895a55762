package resume

import "slices"

// Data 是一份简历的完整结构化内容，字段名与前端编辑器保持一致。
type Data struct {
	Personal   Personal     `json:"personal"`
	Experience []Experience `json:"experience" validate:"unique=ID,dive"`
	Education  []Education  `json:"education" validate:"unique=ID,dive"`
	Skills     []Skill      `json:"skills" validate:"unique=ID,dive"`
	Links      []Link       `json:"links" validate:"unique=ID,dive"`
}

// Personal 描述简历头部的个人信息。
type Personal struct {
	FullName string `json:"fullName"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Summary  string `json:"summary"`
	Website  string `json:"website,omitempty"`
	// AvatarURL 可以是 data URI、外链，或用户上传资产的对象 Key。
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Experience 表示一段工作经历。Current 为 true 时渲染忽略 EndDate。
type Experience struct {
	ID          string `json:"id" validate:"required"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Education 表示一段教育经历。
type Education struct {
	ID          string `json:"id" validate:"required"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Skill 表示一项技能，Level 名义范围为 1-5。
type Skill struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Link 表示一个外部链接。
type Link struct {
	ID    string `json:"id" validate:"required"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

const (
	MinSkillLevel = 1
	MaxSkillLevel = 5
)

// Clone 返回不共享底层切片的副本。
func (d Data) Clone() Data {
	return Data{
		Personal:   d.Personal,
		Experience: slices.Clone(d.Experience),
		Education:  slices.Clone(d.Education),
		Skills:     slices.Clone(d.Skills),
		Links:      slices.Clone(d.Links),
	}
}
