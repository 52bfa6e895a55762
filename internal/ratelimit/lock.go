package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// KeyLock 保证同一个 key 同时只有一个持有者，TTL 到期自动释放。
type KeyLock struct {
	client setNXer
	prefix string
	ttl    time.Duration
}

func NewKeyLock(client setNXer, prefix string, ttl time.Duration) *KeyLock {
	return &KeyLock{client: client, prefix: prefix, ttl: ttl}
}

// Acquire 尝试加锁，已被占用时返回 false。
func (l *KeyLock) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %q: %w", key, err)
	}
	return ok, nil
}

func (l *KeyLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("release lock %q: %w", key, err)
	}
	return nil
}
