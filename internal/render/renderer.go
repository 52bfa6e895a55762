package render

import (
	"log/slog"

	"golang.org/x/net/html"

	"resumify/internal/catalog"
	"resumify/internal/resume"
)

// Renderer 把简历数据排版为节点树。实现必须是纯函数：
// 同样的输入得到同样的输出，空列表省略整个区块，不返回错误。
type Renderer interface {
	Render(d resume.Data) *html.Node
}

// RendererFunc 让普通函数满足 Renderer。
type RendererFunc func(d resume.Data) *html.Node

func (f RendererFunc) Render(d resume.Data) *html.Node { return f(d) }

var legacy = map[string]Renderer{
	catalog.Onyx:           RendererFunc(onyx),
	catalog.Quartz:         RendererFunc(quartz),
	catalog.Canvas:         RendererFunc(canvas),
	catalog.Horizon:        RendererFunc(horizonSidebar),
	catalog.HorizonMinimal: RendererFunc(horizonSingle),
}

// For 为模板选择渲染器：固定 ID 精确匹配，其次是带配置的动态模板，
// 其余情况回落到 Onyx。
func For(t catalog.Template) Renderer {
	if r, ok := legacy[t.ID]; ok {
		return r
	}
	if t.IsDynamic && t.Config != nil {
		return Dynamic{Design: *t.Config}
	}
	slog.Default().Warn("render: no renderer for template, falling back to onyx",
		slog.String("template_id", t.ID),
		slog.Bool("is_dynamic", t.IsDynamic),
	)
	return legacy[catalog.Onyx]
}

// ForID 在目录中查找 id 后分派；未知 id 同样回落到 Onyx。
func ForID(c *catalog.Catalog, id string) Renderer {
	t, ok := c.Lookup(id)
	if !ok {
		t = catalog.Template{ID: id}
	}
	return For(t)
}
