package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resumify/internal/auth"
	"resumify/internal/database"
	"resumify/internal/resume"
)

// ErrGuest 表示访客没有可编辑的草稿。
var ErrGuest = errors.New("guest has no draft")

type entry struct {
	mu      sync.Mutex
	session *resume.Session
}

// Store 持久化用户草稿与最近使用的模板。读取在进程内缓存为 resume.Session，
// 数据库读写失败只记录日志，不影响调用方。
type Store struct {
	db     *gorm.DB
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[uint]*entry
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, sessions: make(map[uint]*entry)}
}

// Load 返回已保存的草稿；访客、未保存或读取失败时 ok 为 false。
func (s *Store) Load(ctx context.Context, id *auth.Identity) (*resume.Data, bool) {
	if id == nil {
		return nil, false
	}
	if e := s.cached(id.UserID); e != nil {
		d := e.session.Snapshot()
		return &d, true
	}
	d, ok := s.read(ctx, id.UserID)
	if !ok {
		return nil, false
	}
	s.remember(id.UserID, d)
	return &d, true
}

// Save 校验并规范化后保存整份草稿。校验失败返回错误；存储失败只记日志。
func (s *Store) Save(ctx context.Context, id *auth.Identity, d resume.Data) (resume.Data, error) {
	if id == nil {
		return resume.Data{}, ErrGuest
	}
	d = resume.Normalize(d)
	if err := resume.Validate(d); err != nil {
		return resume.Data{}, err
	}
	e := s.entry(ctx, id.UserID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Replace(d)
	s.write(ctx, id.UserID, d)
	return e.session.Snapshot(), nil
}

// Edit 在用户的会话上执行一次修改，结果不合法时回滚。
func (s *Store) Edit(ctx context.Context, id *auth.Identity, apply func(*resume.Session) error) (resume.Data, error) {
	if id == nil {
		return resume.Data{}, ErrGuest
	}
	e := s.entry(ctx, id.UserID)
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.session.Snapshot()
	if err := apply(e.session); err != nil {
		e.session.Replace(before)
		return resume.Data{}, err
	}
	next := resume.Normalize(e.session.Snapshot())
	if err := resume.Validate(next); err != nil {
		e.session.Replace(before)
		return resume.Data{}, err
	}
	e.session.Replace(next)
	s.write(ctx, id.UserID, next)
	return next, nil
}

// LoadLastTemplate 返回用户上次选择的模板 ID。
func (s *Store) LoadLastTemplate(ctx context.Context, id *auth.Identity) (string, bool) {
	if id == nil {
		return "", false
	}
	var user database.User
	err := s.db.WithContext(ctx).Select("id", "last_template_id").First(&user, id.UserID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("drafts: load last template failed", slog.Uint64("user_id", uint64(id.UserID)), slog.Any("error", err))
		}
		return "", false
	}
	return user.LastTemplateID, user.LastTemplateID != ""
}

// SaveLastTemplate 记录用户选择的模板。
func (s *Store) SaveLastTemplate(ctx context.Context, id *auth.Identity, templateID string) {
	if id == nil {
		return
	}
	err := s.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ?", id.UserID).
		Update("last_template_id", templateID).Error
	if err != nil {
		s.logger.Warn("drafts: save last template failed",
			slog.Uint64("user_id", uint64(id.UserID)),
			slog.String("template_id", templateID),
			slog.Any("error", err),
		)
	}
}

func (s *Store) cached(userID uint) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

func (s *Store) remember(userID uint, d resume.Data) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[userID]; ok {
		return e
	}
	e := &entry{session: resume.NewSession(d)}
	s.sessions[userID] = e
	return e
}

// entry 返回用户的会话，没有保存过草稿时以示例简历开始。
func (s *Store) entry(ctx context.Context, userID uint) *entry {
	if e := s.cached(userID); e != nil {
		return e
	}
	d, ok := s.read(ctx, userID)
	if !ok {
		d = resume.Sample()
	}
	return s.remember(userID, d)
}

func (s *Store) read(ctx context.Context, userID uint) (resume.Data, bool) {
	var draft database.Draft
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&draft).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("drafts: load failed", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		}
		return resume.Data{}, false
	}
	var d resume.Data
	if err := json.Unmarshal(draft.Content, &d); err != nil {
		s.logger.Warn("drafts: stored draft is not valid json", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return resume.Data{}, false
	}
	return d, true
}

func (s *Store) write(ctx context.Context, userID uint, d resume.Data) {
	if err := s.upsert(ctx, userID, d); err != nil {
		s.logger.Warn("drafts: save failed", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
	}
}

func (s *Store) upsert(ctx context.Context, userID uint, d resume.Data) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	draft := database.Draft{UserID: userID, Content: datatypes.JSON(raw)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&draft).Error
}
