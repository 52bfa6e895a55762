package catalog

// Layout 决定动态模板的分栏方式。
type Layout string

const (
	LayoutSidebarLeft  Layout = "sidebar-left"
	LayoutSidebarRight Layout = "sidebar-right"
	LayoutSingleColumn Layout = "single-column"
	// LayoutModernGrid 已声明但没有独立实现，渲染时按单栏处理。
	LayoutModernGrid Layout = "modern-grid"
)

// Font 是字体族的抽象名称。
type Font string

const (
	FontSans  Font = "sans"
	FontSerif Font = "serif"
	FontMono  Font = "mono"
)

// Density 控制区块间距。
type Density string

const (
	DensityCompact  Density = "compact"
	DensityNormal   Density = "normal"
	DensitySpacious Density = "spacious"
)

// HeaderStyle 控制页眉样式。
type HeaderStyle string

const (
	HeaderCentered HeaderStyle = "centered"
	HeaderLeft     HeaderStyle = "left"
	HeaderBanner   HeaderStyle = "banner"
)

// Design 是动态模板的全部视觉参数。
type Design struct {
	Layout         Layout      `json:"layout" validate:"oneof=sidebar-left sidebar-right single-column modern-grid"`
	FontHeading    Font        `json:"fontHeading" validate:"oneof=sans serif mono"`
	FontBody       Font        `json:"fontBody" validate:"oneof=sans serif mono"`
	ColorPrimary   string      `json:"colorPrimary" validate:"hexcolor"`
	ColorSecondary string      `json:"colorSecondary" validate:"hexcolor"`
	ColorAccent    string      `json:"colorAccent" validate:"hexcolor"`
	Density        Density     `json:"density" validate:"oneof=compact normal spacious"`
	ShowIcons      bool        `json:"showIcons"`
	HeaderStyle    HeaderStyle `json:"headerStyle" validate:"oneof=centered left banner"`
}

// Swatch 是调色板中的一组配色。
type Swatch struct {
	Primary   string
	Secondary string
	Accent    string
}

// Palette 为生成的模板族提供配色，顺序固定。
var Palette = [10]Swatch{
	{Primary: "#1e293b", Secondary: "#475569", Accent: "#3b82f6"}, // slate blue
	{Primary: "#0f172a", Secondary: "#334155", Accent: "#0ea5e9"}, // dark sky
	{Primary: "#000000", Secondary: "#333333", Accent: "#666666"}, // mono
	{Primary: "#14532d", Secondary: "#166534", Accent: "#22c55e"}, // forest
	{Primary: "#7c2d12", Secondary: "#9a3412", Accent: "#f97316"}, // burnt orange
	{Primary: "#4c1d95", Secondary: "#5b21b6", Accent: "#8b5cf6"}, // royal purple
	{Primary: "#831843", Secondary: "#9d174d", Accent: "#ec4899"}, // pink rose
	{Primary: "#1e3a8a", Secondary: "#1e40af", Accent: "#60a5fa"}, // corporate blue
	{Primary: "#374151", Secondary: "#4b5563", Accent: "#10b981"}, // gray teal
	{Primary: "#262626", Secondary: "#404040", Accent: "#f59e0b"}, // dark gold
}

func swatch(i int) Swatch {
	return Palette[i%len(Palette)]
}
