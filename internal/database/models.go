package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Email          string `gorm:"uniqueIndex;size:255"`
	Name           string `gorm:"size:128"`
	PasswordHash   string `gorm:"size:255"`
	IsPremium      bool   `gorm:"default:false"`
	LastTemplateID string `gorm:"size:64"`
	Draft          *Draft `gorm:"constraint:OnDelete:CASCADE"`
}

// Draft 保存用户当前编辑中的简历，每个用户一份。
type Draft struct {
	gorm.Model
	UserID  uint           `gorm:"uniqueIndex"`
	Content datatypes.JSON `gorm:"type:jsonb"`
}

// 导出任务状态。
const (
	ExportStatusPending    = "pending"
	ExportStatusProcessing = "processing"
	ExportStatusCompleted  = "completed"
	ExportStatusFailed     = "failed"
)

// Export 记录一次 PDF 导出。Snapshot 是请求时的简历数据，
// 与之后的编辑无关；访客导出时 UserID 为空。
type Export struct {
	ID           string         `gorm:"primaryKey;size:36"`
	UserID       *uint          `gorm:"index"`
	ClientKey    string         `gorm:"size:128;index"`
	TemplateID   string         `gorm:"size:64"`
	Snapshot     datatypes.JSON `gorm:"type:jsonb"`
	Watermark    bool
	Status       string `gorm:"size:32;index"`
	ObjectKey    string `gorm:"size:512"`
	FileName     string `gorm:"size:255"`
	Pages        int
	ErrorCode    int
	ErrorMessage string `gorm:"size:512"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TemplatePreview 记录模板缩略图在对象存储中的位置。
type TemplatePreview struct {
	TemplateID string `gorm:"primaryKey;size:64"`
	ObjectKey  string `gorm:"size:512"`
	Scale      float64
	Width      int
	Height     int
	UpdatedAt  time.Time
}

// Migrate 创建或更新全部表结构。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Draft{}, &Export{}, &TemplatePreview{})
}
