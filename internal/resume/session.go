package resume

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrNotFound 表示按 ID 找不到对应条目。
var ErrNotFound = errors.New("resume entry not found")

// Session 持有编辑中的简历。写操作串行执行并整体替换快照，
// 读方通过 Snapshot 原子地拿到一份完整数据，不会看到写了一半的状态。
type Session struct {
	mu      sync.Mutex
	current atomic.Pointer[Data]
}

// NewSession 以 initial 的副本作为初始快照。
func NewSession(initial Data) *Session {
	s := &Session{}
	snap := initial.Clone()
	s.current.Store(&snap)
	return s
}

// Snapshot 返回当前快照的副本。
func (s *Session) Snapshot() Data {
	return s.current.Load().Clone()
}

// Replace 用 next 整体替换当前数据。
func (s *Session) Replace(next Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := next.Clone()
	s.current.Store(&snap)
}

// Update 基于当前快照计算新数据；fn 返回错误时不做任何替换。
func (s *Session) Update(fn func(Data) (Data, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.current.Load().Clone())
	if err != nil {
		return err
	}
	snap := next.Clone()
	s.current.Store(&snap)
	return nil
}

// SetPersonal 替换个人信息。
func (s *Session) SetPersonal(p Personal) {
	_ = s.Update(func(d Data) (Data, error) {
		d.Personal = p
		return d, nil
	})
}

func (s *Session) AddExperience(e Experience) {
	_ = s.Update(func(d Data) (Data, error) {
		d.Experience = append(d.Experience, e)
		return d, nil
	})
}

func (s *Session) UpdateExperience(e Experience) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := replaceByID(d.Experience, e, func(x Experience) string { return x.ID })
		d.Experience = items
		return d, err
	})
}

func (s *Session) RemoveExperience(id string) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := removeByID(d.Experience, id, func(x Experience) string { return x.ID })
		d.Experience = items
		return d, err
	})
}

func (s *Session) AddEducation(e Education) {
	_ = s.Update(func(d Data) (Data, error) {
		d.Education = append(d.Education, e)
		return d, nil
	})
}

func (s *Session) UpdateEducation(e Education) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := replaceByID(d.Education, e, func(x Education) string { return x.ID })
		d.Education = items
		return d, err
	})
}

func (s *Session) RemoveEducation(id string) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := removeByID(d.Education, id, func(x Education) string { return x.ID })
		d.Education = items
		return d, err
	})
}

func (s *Session) AddSkill(sk Skill) {
	_ = s.Update(func(d Data) (Data, error) {
		d.Skills = append(d.Skills, sk)
		return d, nil
	})
}

func (s *Session) UpdateSkill(sk Skill) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := replaceByID(d.Skills, sk, func(x Skill) string { return x.ID })
		d.Skills = items
		return d, err
	})
}

func (s *Session) RemoveSkill(id string) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := removeByID(d.Skills, id, func(x Skill) string { return x.ID })
		d.Skills = items
		return d, err
	})
}

func (s *Session) AddLink(l Link) {
	_ = s.Update(func(d Data) (Data, error) {
		d.Links = append(d.Links, l)
		return d, nil
	})
}

func (s *Session) UpdateLink(l Link) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := replaceByID(d.Links, l, func(x Link) string { return x.ID })
		d.Links = items
		return d, err
	})
}

func (s *Session) RemoveLink(id string) error {
	return s.Update(func(d Data) (Data, error) {
		items, err := removeByID(d.Links, id, func(x Link) string { return x.ID })
		d.Links = items
		return d, err
	})
}

func replaceByID[T any](items []T, next T, idOf func(T) string) ([]T, error) {
	idx := slices.IndexFunc(items, func(x T) bool { return idOf(x) == idOf(next) })
	if idx < 0 {
		return items, ErrNotFound
	}
	items[idx] = next
	return items, nil
}

func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, error) {
	idx := slices.IndexFunc(items, func(x T) bool { return idOf(x) == id })
	if idx < 0 {
		return items, ErrNotFound
	}
	return slices.Delete(items, idx, idx+1), nil
}
