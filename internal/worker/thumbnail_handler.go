package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resumify/internal/catalog"
	"resumify/internal/database"
	"resumify/internal/export"
	"resumify/internal/metrics"
	"resumify/internal/render"
	"resumify/internal/resume"
	"resumify/internal/storage"
	"resumify/internal/tasks"
	"resumify/internal/thumbnail"
)

const (
	// ThumbnailWidth 是选择器卡片的像素宽度。
	ThumbnailWidth   = 320.0
	thumbnailQuality = 80
)

// ThumbnailHandler 用示例简历渲染模板并截取缩略图。
type ThumbnailHandler struct {
	db          *gorm.DB
	store       storage.ObjectStore
	capturer    export.Capturer
	catalog     *catalog.Catalog
	concurrency int
	logger      *slog.Logger
}

func NewThumbnailHandler(
	db *gorm.DB,
	store storage.ObjectStore,
	capturer export.Capturer,
	cat *catalog.Catalog,
	concurrency int,
	logger *slog.Logger,
) *ThumbnailHandler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ThumbnailHandler{
		db:          db,
		store:       store,
		capturer:    capturer,
		catalog:     cat,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (h *ThumbnailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ThumbnailGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal thumbnail payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal thumbnail payload: %v: %w", err, asynq.SkipRetry)
	}
	log := h.logger.With(slog.String("correlation_id", payload.CorrelationID))

	templates, err := h.selectTemplates(payload.TemplateIDs)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	scale, _ := thumbnail.ScaleFor(ThumbnailWidth)
	log.Info("thumbnail generation started", slog.Int("templates", len(templates)), slog.Float64("scale", scale))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(h.concurrency)
	for _, tmpl := range templates {
		g.Go(func() error {
			err := h.generate(ctx, tmpl, scale)
			metrics.ThumbnailGenerated(err == nil)
			if err != nil {
				log.Warn("thumbnail generation failed", slog.String("template_id", tmpl.ID), slog.Any("error", err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", tmpl.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d thumbnails failed: %w", len(errs), len(templates), errors.Join(errs...))
	}
	log.Info("thumbnail generation completed")
	return nil
}

func (h *ThumbnailHandler) selectTemplates(ids []string) ([]catalog.Template, error) {
	if len(ids) == 0 {
		return h.catalog.All(), nil
	}
	out := make([]catalog.Template, 0, len(ids))
	for _, id := range ids {
		t, err := h.catalog.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (h *ThumbnailHandler) generate(ctx context.Context, t catalog.Template, scale float64) error {
	doc, err := render.HTML(render.Page(t, resume.Sample(), render.DocumentOptions{Title: t.Name}))
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	bmp, err := h.capturer.Capture(ctx, export.CaptureRequest{
		HTML:     doc,
		Selector: render.TargetSelector,
		Scale:    scale,
		Format:   export.FormatJPEG,
		Quality:  thumbnailQuality,
	})
	if err != nil {
		return err
	}

	key := storage.ThumbnailKey(t.ID)
	if err := h.store.Put(ctx, key, bytes.NewReader(bmp.Data), int64(len(bmp.Data)), "image/jpeg"); err != nil {
		return err
	}
	preview := database.TemplatePreview{
		TemplateID: t.ID,
		ObjectKey:  key,
		Scale:      scale,
		Width:      bmp.Width,
		Height:     bmp.Height,
	}
	if err := h.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&preview).Error; err != nil {
		return fmt.Errorf("save template preview: %w", err)
	}
	return nil
}
