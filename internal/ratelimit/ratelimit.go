// Package ratelimit 按 key 限制固定窗口内的尝试次数。
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 60 * time.Second
)

// Limiter 记录一次尝试并报告是否放行。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count       int
	windowStart time.Time
}

// Memory 是进程内的固定窗口限流器。
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]window
}

func NewMemory(limit int, per time.Duration) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if per <= 0 {
		per = DefaultWindow
	}
	return &Memory{limit: limit, window: per, now: time.Now, windows: make(map[string]window)}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.windowStart) >= m.window {
		m.windows[key] = window{count: 1, windowStart: now}
		m.sweep(now)
		return true, nil
	}
	if w.count >= m.limit {
		return false, nil
	}
	w.count++
	m.windows[key] = w
	return true, nil
}

// sweep 清理已过期的窗口，调用方持有锁。
func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if now.Sub(w.windowStart) >= m.window {
			delete(m.windows, k)
		}
	}
}

type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Redis 用 INCR + EXPIRE 实现跨实例共享的固定窗口。
type Redis struct {
	client counter
	prefix string
	limit  int
	window time.Duration
}

func NewRedis(client counter, prefix string, limit int, per time.Duration) *Redis {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if per <= 0 {
		per = DefaultWindow
	}
	return &Redis{client: client, prefix: prefix, limit: limit, window: per}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	count, err := incrWithTTL(ctx, r.client, r.prefix+key, r.window)
	if err != nil {
		return false, fmt.Errorf("incr rate counter: %w", err)
	}
	return count <= int64(r.limit), nil
}

func incrWithTTL(ctx context.Context, client counter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
