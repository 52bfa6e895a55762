package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/html"

	"resumify/internal/api/middleware"
	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/drafts"
	"resumify/internal/render"
	"resumify/internal/resume"
)

// PreviewHandler 渲染实时预览。预览不受会员闸门限制，非会员带水印。
type PreviewHandler struct {
	catalog *catalog.Catalog
	drafts  *drafts.Store
}

func NewPreviewHandler(cat *catalog.Catalog, store *drafts.Store) *PreviewHandler {
	return &PreviewHandler{catalog: cat, drafts: store}
}

type previewRequest struct {
	TemplateID string          `json:"templateId"`
	Data       json.RawMessage `json:"data"`
}

// POST /v1/preview
func (h *PreviewHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id := middleware.IdentityFromContext(c)
	data, err := resolveResume(c, h.drafts, id, req.Data)
	if err != nil {
		if !InvalidResume(c, err) {
			BadRequest(c, err.Error())
		}
		return
	}

	t, ok := h.catalog.Lookup(req.TemplateID)
	if !ok {
		middleware.LoggerFromContext(c).Warn("preview with unknown template, using default",
			slog.String("template_id", req.TemplateID))
		t, _ = h.catalog.Lookup(catalog.Onyx)
	}

	opts := render.DocumentOptions{}
	if !id.Premium() {
		opts.Watermark = render.PreviewWatermark
	}
	writeHTML(c, render.Page(t, data, opts))
}

// resolveResume 优先使用请求体中的简历；为空时登录用户取草稿，其余情况使用示例简历。
func resolveResume(c *gin.Context, store *drafts.Store, id *auth.Identity, raw json.RawMessage) (resume.Data, error) {
	if len(raw) == 0 || string(raw) == "null" {
		if d, ok := store.Load(c.Request.Context(), id); ok {
			return *d, nil
		}
		return resume.Sample(), nil
	}
	if err := resume.ValidateJSON(raw); err != nil {
		return resume.Data{}, err
	}
	var data resume.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return resume.Data{}, err
	}
	data = resume.Normalize(data)
	if err := resume.Validate(data); err != nil {
		return resume.Data{}, err
	}
	return data, nil
}

func writeHTML(c *gin.Context, doc *html.Node) {
	out, err := render.HTML(doc)
	if err != nil {
		middleware.LoggerFromContext(c).Error("serialize document failed", slog.Any("error", err))
		Internal(c, "failed to render document")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}
