package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumify/internal/api/middleware"
	"resumify/internal/catalog"
	"resumify/internal/database"
	"resumify/internal/resume"
	"resumify/internal/storage"
	"resumify/internal/tasks"
	"resumify/internal/thumbnail"
)

// TemplateHandler 负责模板目录、缩略图与预览。
type TemplateHandler struct {
	db         *gorm.DB
	catalog    *catalog.Catalog
	store      storage.ObjectStore
	queue      Enqueuer
	presignTTL time.Duration
}

func NewTemplateHandler(db *gorm.DB, cat *catalog.Catalog, store storage.ObjectStore, queue Enqueuer, presignTTL time.Duration) *TemplateHandler {
	return &TemplateHandler{db: db, catalog: cat, store: store, queue: queue, presignTTL: presignTTL}
}

// GET /v1/templates?category=&premium=
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	category := catalog.Category(c.Query("category"))
	premium := c.Query("premium")
	if premium != "" && premium != "true" && premium != "false" {
		BadRequest(c, "premium must be true or false")
		return
	}

	items := h.catalog.Filter(func(t catalog.Template) bool {
		if category != "" && t.Category != category {
			return false
		}
		if premium != "" && strconv.FormatBool(t.IsPremium) != premium {
			return false
		}
		return true
	})
	c.JSON(http.StatusOK, items)
}

// GET /v1/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, ok := h.catalog.Lookup(c.Param("id"))
	if !ok {
		NotFound(c, "template not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

type thumbnailResponse struct {
	URL       string    `json:"url"`
	Scale     float64   `json:"scale"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GET /v1/templates/:id/thumbnail
// 返回预渲染缩略图的限时链接，尚未生成时 404，前端退回到 HTML 缩略图。
func (h *TemplateHandler) GetThumbnail(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.catalog.Lookup(id); !ok {
		NotFound(c, "template not found")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var preview database.TemplatePreview
	if err := h.db.WithContext(ctx).First(&preview, "template_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "thumbnail not generated")
			return
		}
		logger.Error("query template preview failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	url, err := h.store.DownloadURL(ctx, preview.ObjectKey, "", h.presignTTL)
	if err != nil {
		logger.Error("presign thumbnail failed", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, thumbnailResponse{
		URL:       url,
		Scale:     preview.Scale,
		Width:     preview.Width,
		Height:    preview.Height,
		UpdatedAt: preview.UpdatedAt,
	})
}

// GET /v1/templates/:id/frame?width=
// 用示例简历渲染模板，并按容器宽度缩放成缩略图页面。
func (h *TemplateHandler) GetFrame(c *gin.Context) {
	t, ok := h.catalog.Lookup(c.Param("id"))
	if !ok {
		NotFound(c, "template not found")
		return
	}

	width := thumbnail.ReferenceWidth * thumbnail.InitialScale
	if raw := c.Query("width"); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if _, valid := thumbnail.ScaleFor(w); err != nil || !valid {
			BadRequest(c, "width must be a positive number")
			return
		}
		width = w
	}

	writeHTML(c, thumbnail.Document(t, resume.Sample(), width))
}

type thumbnailRequest struct {
	TemplateIDs []string `json:"templateIds"`
}

// POST /v1/internal/thumbnails
// 内部接口：为指定模板（为空时为全部）排队重新生成缩略图。
func (h *TemplateHandler) EnqueueThumbnails(c *gin.Context) {
	var req thumbnailRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	ids := make([]string, 0, len(req.TemplateIDs))
	for _, id := range req.TemplateIDs {
		id = strings.TrimSpace(id)
		if _, ok := h.catalog.Lookup(id); !ok {
			NotFound(c, "template not found: "+id)
			return
		}
		ids = append(ids, id)
	}

	correlationID := middleware.GetCorrelationID(c)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	task, err := tasks.NewThumbnailGenerateTask(ids, correlationID)
	if err != nil {
		Internal(c, "internal error")
		return
	}
	info, err := h.queue.EnqueueContext(c.Request.Context(), task, asynq.Queue("low"))
	if err != nil {
		middleware.LoggerFromContext(c).Error("enqueue thumbnail task failed", slog.Any("error", err))
		Internal(c, "failed to enqueue task")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"taskId": info.ID})
}
