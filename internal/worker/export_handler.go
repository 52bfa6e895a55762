package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/database"
	"resumify/internal/errcode"
	"resumify/internal/export"
	"resumify/internal/metrics"
	"resumify/internal/resume"
	"resumify/internal/storage"
	"resumify/internal/tasks"
)

// Releaser 释放 API 在入队时为发起者加的导出锁。
type Releaser interface {
	Release(ctx context.Context, key string) error
}

// ExportHandler 消费导出任务：读取导出记录中的快照，执行导出管线，上传 PDF 并通知发起者。
type ExportHandler struct {
	db        *gorm.DB
	store     storage.ObjectStore
	pipeline  *export.Pipeline
	catalog   *catalog.Catalog
	publisher Publisher
	lock      Releaser
	logger    *slog.Logger
}

func NewExportHandler(
	db *gorm.DB,
	store storage.ObjectStore,
	pipeline *export.Pipeline,
	cat *catalog.Catalog,
	publisher Publisher,
	lock Releaser,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		db:        db,
		store:     store,
		pipeline:  pipeline,
		catalog:   cat,
		publisher: publisher,
		lock:      lock,
		logger:    logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.ExportGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal export payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal export payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("export_id", payload.ExportID),
	)

	var row database.Export
	if err := h.db.WithContext(ctx).First(&row, "id = ?", payload.ExportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("export not found, skipping task")
			return nil
		}
		log.Error("query export failed", slog.Any("error", err))
		return err
	}
	if row.Status == database.ExportStatusCompleted {
		log.Info("export already completed, skipping task")
		return nil
	}
	log = log.With(slog.String("template_id", row.TemplateID), slog.String("client_key", row.ClientKey))

	notify := func(msg ExportNotifyMessage) {
		msg.ExportID = row.ID
		msg.CorrelationID = payload.CorrelationID
		if err := publish(ctx, h.publisher, row.ClientKey, msg); err != nil {
			log.Warn("publish export notification failed", slog.Any("error", err))
		}
	}

	defer func() {
		if retErr == nil {
			h.release(ctx, log, row.ClientKey)
			return
		}
		if !errors.Is(retErr, asynq.SkipRetry) && !isFinalAsynqAttempt(ctx) {
			return
		}
		h.release(ctx, log, row.ClientKey)
		code := errorCode(retErr, row.UserID == nil)
		h.markFailed(ctx, log, &row, code, retErr)
		notify(ExportNotifyMessage{
			Status:       NotifyError,
			State:        export.StateFailed.String(),
			ErrorCode:    code,
			ErrorMessage: strings.TrimSpace(retErr.Error()),
		})
	}()

	tmpl, err := h.catalog.Get(row.TemplateID)
	if err != nil {
		return fmt.Errorf("resolve template: %v: %w", err, asynq.SkipRetry)
	}
	var data resume.Data
	if err := json.Unmarshal(row.Snapshot, &data); err != nil {
		return fmt.Errorf("decode snapshot: %v: %w", err, asynq.SkipRetry)
	}
	identity, err := h.identity(ctx, row.UserID)
	if err != nil {
		return err
	}

	missing, err := inlineAvatar(ctx, h.store, &data)
	if err != nil {
		return err
	}
	if err := h.db.WithContext(ctx).Model(&row).Update("status", database.ExportStatusProcessing).Error; err != nil {
		log.Warn("mark export processing failed", slog.Any("error", err))
	}

	log.Info("export started")
	started := time.Now()
	res, err := h.pipeline.Run(ctx, export.Request{
		Key:      row.ClientKey,
		Template: tmpl,
		Data:     data,
		Identity: identity,
		OnState: func(s export.State) {
			metrics.ExportState(s.String())
			if s == export.StateCapturing || s == export.StatePaginating {
				notify(ExportNotifyMessage{Status: NotifyProgress, State: s.String()})
			}
		},
	})
	metrics.ExportFinished(tmpl.ID, err == nil, res.Pages, time.Since(started))
	if err != nil {
		log.Error("export pipeline failed", slog.Any("error", err))
		if !retryable(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	objectKey := storage.ExportKey(row.ID)
	if err := h.store.Put(ctx, objectKey, bytes.NewReader(res.PDF), int64(len(res.PDF)), "application/pdf"); err != nil {
		log.Error("upload export pdf failed", slog.Any("error", err))
		return err
	}

	code := errcode.OK
	var missingKeys []string
	if missing != "" {
		code = errcode.ResourceMissing
		missingKeys = []string{missing}
		log.Warn("export generated without avatar", slog.String("missing_key", missing))
	}
	update := map[string]any{
		"status":        database.ExportStatusCompleted,
		"object_key":    objectKey,
		"file_name":     res.FileName,
		"pages":         res.Pages,
		"error_code":    code,
		"error_message": "",
	}
	if err := h.db.WithContext(ctx).Model(&row).Updates(update).Error; err != nil {
		log.Error("update export failed", slog.Any("error", err))
		if delErr := h.store.Delete(ctx, objectKey); delErr != nil {
			log.Warn("remove orphan export pdf failed", slog.Any("error", delErr))
		}
		return err
	}

	msg := ExportNotifyMessage{
		Status:      NotifyCompleted,
		State:       export.StateSaved.String(),
		FileName:    res.FileName,
		Pages:       res.Pages,
		ErrorCode:   code,
		MissingKeys: missingKeys,
	}
	if code == errcode.ResourceMissing {
		msg.ErrorMessage = "avatar missing, exported without it"
	}
	notify(msg)

	log.Info("export completed", slog.Int("pages", res.Pages), slog.Duration("elapsed", time.Since(started)))
	return nil
}

func (h *ExportHandler) release(ctx context.Context, log *slog.Logger, key string) {
	if h.lock == nil {
		return
	}
	if err := h.lock.Release(ctx, key); err != nil {
		log.Warn("release export lock failed", slog.Any("error", err))
	}
}

// identity 重建导出发起者的身份。会员状态以执行时为准，账号已删除时按访客处理。
func (h *ExportHandler) identity(ctx context.Context, userID *uint) (*auth.Identity, error) {
	if userID == nil {
		return nil, nil
	}
	var user database.User
	if err := h.db.WithContext(ctx).First(&user, *userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load export owner: %w", err)
	}
	return &auth.Identity{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsPremium: user.IsPremium,
	}, nil
}

func (h *ExportHandler) markFailed(ctx context.Context, log *slog.Logger, row *database.Export, code int, cause error) {
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	err := h.db.WithContext(ctx).Model(row).Updates(map[string]any{
		"status":        database.ExportStatusFailed,
		"error_code":    code,
		"error_message": msg,
	}).Error
	if err != nil {
		log.Error("mark export failed failed", slog.Any("error", err))
	}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, export.ErrEntitlement),
		errors.Is(err, export.ErrTargetNotFound),
		errors.Is(err, export.ErrEmptyBitmap):
		return false
	}
	return true
}

func errorCode(err error, guest bool) int {
	switch {
	case errors.Is(err, export.ErrEntitlement):
		if guest {
			return errcode.LoginRequired
		}
		return errcode.UpgradeRequired
	case errors.Is(err, export.ErrTargetNotFound):
		return errcode.TargetNotFound
	case errors.Is(err, export.ErrCapture):
		return errcode.CaptureFailed
	case errors.Is(err, export.ErrExportInProgress):
		return errcode.ExportBusy
	default:
		return errcode.SystemError
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
