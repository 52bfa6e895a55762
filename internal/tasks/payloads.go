package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportGenerate    = "export:generate"
	TypeThumbnailGenerate = "thumbnail:generate"
)

// ExportGeneratePayload 指向一条待处理的导出记录，简历快照与模板 ID 都存在记录里。
type ExportGeneratePayload struct {
	ExportID      string `json:"export_id"`
	CorrelationID string `json:"correlation_id"`
}

// ThumbnailGeneratePayload 列出需要重新生成缩略图的模板，为空表示全部。
type ThumbnailGeneratePayload struct {
	TemplateIDs   []string `json:"template_ids,omitempty"`
	CorrelationID string   `json:"correlation_id"`
}

// NewExportGenerateTask 构造导出任务。
func NewExportGenerateTask(exportID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportGeneratePayload{
		ExportID:      exportID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeExportGenerate, payload, asynq.MaxRetry(2)), nil
}

// NewThumbnailGenerateTask 构造缩略图批量生成任务。
func NewThumbnailGenerateTask(templateIDs []string, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ThumbnailGeneratePayload{
		TemplateIDs:   templateIDs,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal thumbnail payload: %w", err)
	}
	return asynq.NewTask(TypeThumbnailGenerate, payload, asynq.MaxRetry(1)), nil
}
