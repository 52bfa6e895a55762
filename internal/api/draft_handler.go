package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumify/internal/api/middleware"
	"resumify/internal/catalog"
	"resumify/internal/drafts"
	"resumify/internal/export"
	"resumify/internal/resume"
)

const maxDraftBytes = 1 << 20

// DraftHandler 负责登录用户的草稿与模板选择。
type DraftHandler struct {
	catalog *catalog.Catalog
	drafts  *drafts.Store
}

func NewDraftHandler(cat *catalog.Catalog, store *drafts.Store) *DraftHandler {
	return &DraftHandler{catalog: cat, drafts: store}
}

type draftResponse struct {
	Data       resume.Data `json:"data"`
	TemplateID string      `json:"templateId,omitempty"`
	Saved      bool        `json:"saved"`
}

// GET /v1/drafts
// 没有保存过草稿时返回示例简历，saved 为 false。
func (h *DraftHandler) GetDraft(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	ctx := c.Request.Context()

	resp := draftResponse{Data: resume.Sample()}
	if d, ok := h.drafts.Load(ctx, id); ok {
		resp.Data = *d
		resp.Saved = true
	}
	if templateID, ok := h.drafts.LoadLastTemplate(ctx, id); ok {
		resp.TemplateID = templateID
	}
	c.JSON(http.StatusOK, resp)
}

// PUT /v1/drafts
func (h *DraftHandler) SaveDraft(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDraftBytes+1))
	if err != nil {
		BadRequest(c, "failed to read body")
		return
	}
	if len(raw) > maxDraftBytes {
		Error(c, http.StatusRequestEntityTooLarge, "draft too large")
		return
	}

	data, err := resolveResume(c, h.drafts, nil, raw)
	if err != nil {
		if !InvalidResume(c, err) {
			BadRequest(c, err.Error())
		}
		return
	}
	saved, err := h.drafts.Save(c.Request.Context(), middleware.IdentityFromContext(c), data)
	if err != nil {
		h.editError(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse{Data: saved, Saved: true})
}

type selectTemplateRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

// PUT /v1/drafts/template
// 选择模板与导出共用会员闸门。
func (h *DraftHandler) SelectTemplate(c *gin.Context) {
	var req selectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	t, ok := h.catalog.Lookup(req.TemplateID)
	if !ok {
		NotFound(c, "template not found")
		return
	}
	id := middleware.IdentityFromContext(c)
	if d := export.Gate(t, id); !d.Allowed {
		PaymentRequired(c, d)
		return
	}
	h.drafts.SaveLastTemplate(c.Request.Context(), id, t.ID)
	c.JSON(http.StatusOK, gin.H{"templateId": t.ID})
}

// PUT /v1/drafts/personal
func (h *DraftHandler) SetPersonal(c *gin.Context) {
	var p resume.Personal
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.edit(c, func(s *resume.Session) error {
		s.SetPersonal(p)
		return nil
	})
}

// POST /v1/drafts/:section
func (h *DraftHandler) AddEntry(c *gin.Context) {
	switch c.Param("section") {
	case "experience":
		var e resume.Experience
		if bindEntry(c, &e) {
			h.edit(c, func(s *resume.Session) error { s.AddExperience(e); return nil })
		}
	case "education":
		var e resume.Education
		if bindEntry(c, &e) {
			h.edit(c, func(s *resume.Session) error { s.AddEducation(e); return nil })
		}
	case "skills":
		var sk resume.Skill
		if bindEntry(c, &sk) {
			h.edit(c, func(s *resume.Session) error { s.AddSkill(sk); return nil })
		}
	case "links":
		var l resume.Link
		if bindEntry(c, &l) {
			h.edit(c, func(s *resume.Session) error { s.AddLink(l); return nil })
		}
	default:
		NotFound(c, "unknown section")
	}
}

// PUT /v1/drafts/:section/:entryId
// 路径中的 ID 优先于请求体。
func (h *DraftHandler) UpdateEntry(c *gin.Context) {
	entryID := c.Param("entryId")
	switch c.Param("section") {
	case "experience":
		var e resume.Experience
		if bindEntry(c, &e) {
			e.ID = entryID
			h.edit(c, func(s *resume.Session) error { return s.UpdateExperience(e) })
		}
	case "education":
		var e resume.Education
		if bindEntry(c, &e) {
			e.ID = entryID
			h.edit(c, func(s *resume.Session) error { return s.UpdateEducation(e) })
		}
	case "skills":
		var sk resume.Skill
		if bindEntry(c, &sk) {
			sk.ID = entryID
			h.edit(c, func(s *resume.Session) error { return s.UpdateSkill(sk) })
		}
	case "links":
		var l resume.Link
		if bindEntry(c, &l) {
			l.ID = entryID
			h.edit(c, func(s *resume.Session) error { return s.UpdateLink(l) })
		}
	default:
		NotFound(c, "unknown section")
	}
}

// DELETE /v1/drafts/:section/:entryId
func (h *DraftHandler) RemoveEntry(c *gin.Context) {
	entryID := c.Param("entryId")
	var remove func(*resume.Session) error
	switch c.Param("section") {
	case "experience":
		remove = func(s *resume.Session) error { return s.RemoveExperience(entryID) }
	case "education":
		remove = func(s *resume.Session) error { return s.RemoveEducation(entryID) }
	case "skills":
		remove = func(s *resume.Session) error { return s.RemoveSkill(entryID) }
	case "links":
		remove = func(s *resume.Session) error { return s.RemoveLink(entryID) }
	default:
		NotFound(c, "unknown section")
		return
	}
	h.edit(c, remove)
}

func bindEntry(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		BadRequest(c, err.Error())
		return false
	}
	return true
}

func (h *DraftHandler) edit(c *gin.Context, apply func(*resume.Session) error) {
	data, err := h.drafts.Edit(c.Request.Context(), middleware.IdentityFromContext(c), apply)
	if err != nil {
		h.editError(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse{Data: data, Saved: true})
}

func (h *DraftHandler) editError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, drafts.ErrGuest):
		Unauthorized(c)
	case errors.Is(err, resume.ErrNotFound):
		NotFound(c, "entry not found")
	case InvalidResume(c, err):
	default:
		Internal(c, "internal error")
	}
}
