package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumify/internal/api/middleware"
	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/database"
	"resumify/internal/drafts"
	"resumify/internal/errcode"
	"resumify/internal/export"
	"resumify/internal/metrics"
	"resumify/internal/ratelimit"
	"resumify/internal/storage"
	"resumify/internal/tasks"
)

// ExportHandler 接收导出请求：闸门、限流、互斥检查通过后落库并入队，由 worker 生成 PDF。
type ExportHandler struct {
	db         *gorm.DB
	catalog    *catalog.Catalog
	drafts     *drafts.Store
	store      storage.ObjectStore
	queue      Enqueuer
	limiter    ratelimit.Limiter
	lock       Locker
	presignTTL time.Duration
}

func NewExportHandler(
	db *gorm.DB,
	cat *catalog.Catalog,
	draftStore *drafts.Store,
	store storage.ObjectStore,
	queue Enqueuer,
	limiter ratelimit.Limiter,
	lock Locker,
	presignTTL time.Duration,
) *ExportHandler {
	return &ExportHandler{
		db:         db,
		catalog:    cat,
		drafts:     draftStore,
		store:      store,
		queue:      queue,
		limiter:    limiter,
		lock:       lock,
		presignTTL: presignTTL,
	}
}

type createExportRequest struct {
	TemplateID string          `json:"templateId" binding:"required"`
	Data       json.RawMessage `json:"data"`
}

type exportResponse struct {
	ID           string    `json:"id"`
	TemplateID   string    `json:"templateId"`
	Status       string    `json:"status"`
	FileName     string    `json:"fileName,omitempty"`
	Pages        int       `json:"pages,omitempty"`
	Watermark    bool      `json:"watermark"`
	ErrorCode    int       `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toExportResponse(row database.Export) exportResponse {
	return exportResponse{
		ID:           row.ID,
		TemplateID:   row.TemplateID,
		Status:       row.Status,
		FileName:     row.FileName,
		Pages:        row.Pages,
		Watermark:    row.Watermark,
		ErrorCode:    row.ErrorCode,
		ErrorMessage: row.ErrorMessage,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// POST /v1/exports
func (h *ExportHandler) CreateExport(c *gin.Context) {
	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	id := middleware.IdentityFromContext(c)
	key := auth.Key(id, c.ClientIP())
	logger := middleware.LoggerFromContext(c).With(
		slog.String("template_id", req.TemplateID),
		slog.String("client_key", key),
	)

	t, ok := h.catalog.Lookup(req.TemplateID)
	if !ok {
		NotFound(c, "template not found")
		return
	}
	if d := export.Gate(t, id); !d.Allowed {
		metrics.ExportRejected("entitlement")
		logger.Info("export rejected by gate", slog.String("redirect", string(d.Redirect)))
		PaymentRequired(c, d)
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, key)
		if err != nil {
			logger.Warn("export rate limit check failed", slog.Any("error", err))
		} else if !allowed {
			metrics.ExportRejected("rate_limited")
			ErrorCode(c, http.StatusTooManyRequests, errcode.RateLimited, "too many exports, try again later")
			return
		}
	}

	data, err := resolveResume(c, h.drafts, id, req.Data)
	if err != nil {
		if !InvalidResume(c, err) {
			BadRequest(c, err.Error())
		}
		return
	}
	if !checkAvatarReference(id, data.Personal.AvatarURL) {
		Forbidden(c, "avatar does not belong to requester")
		return
	}
	snapshot, err := json.Marshal(data)
	if err != nil {
		Internal(c, "internal error")
		return
	}

	acquired, err := h.lock.Acquire(ctx, key)
	if err != nil {
		logger.Error("acquire export lock failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if !acquired {
		metrics.ExportRejected("busy")
		ErrorCode(c, http.StatusConflict, errcode.ExportBusy, export.ErrExportInProgress.Error())
		return
	}

	row := database.Export{
		ID:         uuid.NewString(),
		ClientKey:  key,
		TemplateID: t.ID,
		Snapshot:   datatypes.JSON(snapshot),
		Watermark:  export.Watermark(id),
		Status:     database.ExportStatusPending,
	}
	if id != nil {
		userID := id.UserID
		row.UserID = &userID
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Error("create export failed", slog.Any("error", err))
		h.release(c, key)
		Internal(c, "internal error")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	task, err := tasks.NewExportGenerateTask(row.ID, correlationID)
	if err == nil {
		_, err = h.queue.EnqueueContext(ctx, task)
	}
	if err != nil {
		logger.Error("enqueue export task failed", slog.Any("error", err))
		h.release(c, key)
		if err := h.db.WithContext(ctx).Model(&row).Updates(map[string]any{
			"status":        database.ExportStatusFailed,
			"error_code":    errcode.SystemError,
			"error_message": "enqueue failed",
		}).Error; err != nil {
			logger.Error("mark export failed failed", slog.String("export_id", row.ID), slog.Any("error", err))
		}
		Internal(c, "failed to enqueue export")
		return
	}

	logger.Info("export queued", slog.String("export_id", row.ID))
	c.JSON(http.StatusAccepted, gin.H{"exportId": row.ID, "status": row.Status})
}

// GET /v1/exports/:id
func (h *ExportHandler) GetExport(c *gin.Context) {
	row, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toExportResponse(row))
}

// GET /v1/exports/:id/download-link
func (h *ExportHandler) GetDownloadLink(c *gin.Context) {
	row, ok := h.load(c)
	if !ok {
		return
	}
	if row.Status != database.ExportStatusCompleted || row.ObjectKey == "" {
		Conflict(c, "export not ready")
		return
	}

	url, err := h.store.DownloadURL(c.Request.Context(), row.ObjectKey, row.FileName, h.presignTTL)
	if err != nil {
		middleware.LoggerFromContext(c).Error("presign export failed", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":       url,
		"fileName":  row.FileName,
		"expiresIn": int(h.presignTTL.Seconds()),
	})
}

// load 读取导出记录，只有发起者可见，其余情况一律 404。
func (h *ExportHandler) load(c *gin.Context) (database.Export, bool) {
	var row database.Export
	err := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", c.Param("id")).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.LoggerFromContext(c).Error("query export failed", slog.Any("error", err))
			Internal(c, "internal error")
			return row, false
		}
		NotFound(c, "export not found")
		return row, false
	}
	if row.ClientKey != auth.Key(middleware.IdentityFromContext(c), c.ClientIP()) {
		NotFound(c, "export not found")
		return row, false
	}
	return row, true
}

func (h *ExportHandler) release(c *gin.Context, key string) {
	if err := h.lock.Release(c.Request.Context(), key); err != nil {
		middleware.LoggerFromContext(c).Warn("release export lock failed", slog.Any("error", err))
	}
}
