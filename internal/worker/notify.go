package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 通知状态。
const (
	NotifyProgress  = "progress"
	NotifyCompleted = "completed"
	NotifyError     = "error"
)

// ExportNotifyMessage 经 Redis Pub/Sub 转发给 WebSocket 客户端，字段名与前端解析一致。
type ExportNotifyMessage struct {
	Status        string   `json:"status"`
	ExportID      string   `json:"export_id"`
	CorrelationID string   `json:"correlation_id"`
	State         string   `json:"state,omitempty"`
	FileName      string   `json:"file_name,omitempty"`
	Pages         int      `json:"pages,omitempty"`
	ErrorCode     int      `json:"error_code"`
	ErrorMessage  string   `json:"error_message"`
	MissingKeys   []string `json:"missing_keys,omitempty"`
}

// NotifyChannel 返回某个导出发起者（auth.Key 的结果）的通知频道。
func NotifyChannel(ownerKey string) string {
	return "notify:" + ownerKey
}

// Publisher 是 *redis.Client 中发布消息的部分。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

func publish(ctx context.Context, p Publisher, ownerKey string, msg ExportNotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(ownerKey)
	if err := p.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
