package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Category 是模板在选择器中的分组。
type Category string

const (
	CategoryATS          Category = "ATS"
	CategoryProfessional Category = "Professional"
	CategoryCreative     Category = "Creative"
	CategoryModern       Category = "Modern"
)

// 固定渲染器使用的模板 ID。
const (
	Onyx           = "ONYX"
	Quartz         = "QUARTZ"
	Canvas         = "CANVAS"
	Horizon        = "HORIZON"
	HorizonMinimal = "HORIZON_MINIMAL"
)

// LegacyIDs 列出所有固定渲染器，顺序即目录顺序。
var LegacyIDs = []string{Onyx, Quartz, Canvas, Horizon, HorizonMinimal}

// Template 是目录中的一项，生成后不可变。
type Template struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Category    Category `json:"category" validate:"oneof=ATS Professional Creative Modern"`
	IsPremium   bool     `json:"isPremium"`
	IsDynamic   bool     `json:"isDynamic"`
	// Thumbnail 是选择器在缩略图加载前使用的底色提示。
	Thumbnail string  `json:"thumbnail"`
	Config    *Design `json:"config,omitempty" validate:"required_if=IsDynamic true"`
}

// ErrUnknownTemplate 表示目录中没有对应 ID。
var ErrUnknownTemplate = errors.New("unknown template")

const (
	atsCount      = 15
	creativeCount = 15
	proCount      = 15
	modernCount   = 10
)

// Generate 构造完整目录。结果只取决于常量，多次调用完全一致。
func Generate() []Template {
	out := make([]Template, 0, len(LegacyIDs)+atsCount+creativeCount+proCount+modernCount)

	out = append(out,
		Template{ID: Onyx, Name: "Onyx", Description: "Modern sidebar layout with high contrast.", Category: CategoryProfessional, Thumbnail: "bg-slate-900"},
		Template{ID: Quartz, Name: "Quartz", Description: "Clean two-column layout with accent colors.", Category: CategoryModern, Thumbnail: "bg-blue-100"},
		Template{ID: Canvas, Name: "Canvas", Description: "Classic, elegant full-width design.", Category: CategoryATS, Thumbnail: "bg-gray-50"},
		Template{ID: Horizon, Name: "Horizon", Description: "Elegant emerald design with sidebar.", Category: CategoryProfessional, IsPremium: true, Thumbnail: "bg-emerald-900"},
		Template{ID: HorizonMinimal, Name: "Horizon Minimal", Description: "Clean single-column layout with emerald accents.", Category: CategoryModern, IsPremium: true, Thumbnail: "bg-emerald-50"},
	)

	for i := range atsCount {
		c := swatch(i)
		density := DensityNormal
		if i%2 == 0 {
			density = DensityCompact
		}
		out = append(out, Template{
			ID:          fmt.Sprintf("ats-%d", i),
			Name:        fmt.Sprintf("ATS Standard %d", i+1),
			Description: "Clean, parseable single-column layout optimized for ATS.",
			Category:    CategoryATS,
			IsPremium:   i > 4,
			IsDynamic:   true,
			Thumbnail:   "bg-white border-2",
			Config: &Design{
				Layout:         LayoutSingleColumn,
				FontHeading:    FontSans,
				FontBody:       FontSans,
				ColorPrimary:   c.Primary,
				ColorSecondary: c.Secondary,
				ColorAccent:    c.Accent,
				Density:        density,
				ShowIcons:      false,
				HeaderStyle:    HeaderLeft,
			},
		})
	}

	for i := range creativeCount {
		c := swatch(i + 3)
		heading := FontSans
		if i%2 == 0 {
			heading = FontSerif
		}
		out = append(out, Template{
			ID:          fmt.Sprintf("creative-%d", i),
			Name:        fmt.Sprintf("Creative Studio %d", i+1),
			Description: "Bold sidebar layout perfect for designers and artists.",
			Category:    CategoryCreative,
			IsPremium:   true,
			IsDynamic:   true,
			Thumbnail:   "bg-gradient-to-br from-purple-100 to-blue-50",
			Config: &Design{
				Layout:         LayoutSidebarLeft,
				FontHeading:    heading,
				FontBody:       FontSans,
				ColorPrimary:   c.Primary,
				ColorSecondary: c.Secondary,
				ColorAccent:    c.Accent,
				Density:        DensityNormal,
				ShowIcons:      true,
				HeaderStyle:    HeaderLeft,
			},
		})
	}

	for i := range proCount {
		c := swatch(i + 5)
		layout := LayoutSingleColumn
		if i%2 == 0 {
			layout = LayoutSidebarRight
		}
		header := HeaderCentered
		if i%3 == 0 {
			header = HeaderBanner
		}
		out = append(out, Template{
			ID:          fmt.Sprintf("pro-%d", i),
			Name:        fmt.Sprintf("Executive Pro %d", i+1),
			Description: "Sophisticated layout for management roles.",
			Category:    CategoryProfessional,
			IsPremium:   true,
			IsDynamic:   true,
			Thumbnail:   "bg-slate-200",
			Config: &Design{
				Layout:         layout,
				FontHeading:    FontSerif,
				FontBody:       FontSerif,
				ColorPrimary:   c.Primary,
				ColorSecondary: c.Secondary,
				ColorAccent:    c.Accent,
				Density:        DensitySpacious,
				ShowIcons:      true,
				HeaderStyle:    header,
			},
		})
	}

	for i := range modernCount {
		c := swatch(i + 1)
		out = append(out, Template{
			ID:          fmt.Sprintf("modern-%d", i),
			Name:        fmt.Sprintf("Modern Tech %d", i+1),
			Description: "Contemporary minimalist design.",
			Category:    CategoryModern,
			IsPremium:   i > 2,
			IsDynamic:   true,
			Thumbnail:   "bg-blue-50",
			Config: &Design{
				Layout:         LayoutSingleColumn,
				FontHeading:    FontSans,
				FontBody:       FontMono,
				ColorPrimary:   c.Primary,
				ColorSecondary: c.Secondary,
				ColorAccent:    c.Accent,
				Density:        DensityNormal,
				ShowIcons:      true,
				HeaderStyle:    HeaderCentered,
			},
		})
	}

	return out
}

// Catalog 是只读的模板目录，可被任意 goroutine 共享。
type Catalog struct {
	templates []Template
	byID      map[string]int
}

// New 校验并索引 templates。
func New(templates []Template) (*Catalog, error) {
	if err := Validate(templates); err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(templates))
	for i, t := range templates {
		byID[t.ID] = i
	}
	return &Catalog{templates: slices.Clone(templates), byID: byID}, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New(Generate())
	if err != nil {
		panic(fmt.Sprintf("build template catalog: %v", err))
	}
	return c
})

// Default 返回进程级目录，首次调用时生成。
func Default() *Catalog {
	return defaultCatalog()
}

// All 按目录顺序返回全部模板。
func (c *Catalog) All() []Template {
	return slices.Clone(c.templates)
}

// Lookup 按 ID 精确查找。
func (c *Catalog) Lookup(id string) (Template, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[idx], true
}

// Get 与 Lookup 相同，但以错误形式报告缺失。
func (c *Catalog) Get(id string) (Template, error) {
	t, ok := c.Lookup(id)
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return t, nil
}

// Filter 返回满足 keep 的模板，保持目录顺序。
func (c *Catalog) Filter(keep func(Template) bool) []Template {
	out := make([]Template, 0, len(c.templates))
	for _, t := range c.templates {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Free() []Template {
	return c.Filter(func(t Template) bool { return !t.IsPremium })
}

func (c *Catalog) Premium() []Template {
	return c.Filter(func(t Template) bool { return t.IsPremium })
}

func (c *Catalog) ByCategory(cat Category) []Template {
	return c.Filter(func(t Template) bool { return t.Category == cat })
}

// Validate 检查目录不变量：ID 全局唯一、动态模板必须带配置、
// 非动态模板必须对应固定渲染器。
func Validate(templates []Template) error {
	v := validator.New()
	seen := make(map[string]struct{}, len(templates))
	for _, t := range templates {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate template id %q", t.ID)
		}
		seen[t.ID] = struct{}{}

		if err := v.Struct(t); err != nil {
			return fmt.Errorf("template %q: %w", t.ID, err)
		}
		if !t.IsDynamic && !slices.Contains(LegacyIDs, t.ID) {
			return fmt.Errorf("template %q is not dynamic and has no fixed renderer", t.ID)
		}
	}
	return nil
}
