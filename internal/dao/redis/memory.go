// Package redis 提供 CacheService 接口的本地内存实现
// 单机部署与单元测试使用；多实例部署必须使用 Redis 实现，
// 否则限流计数与吊销集合在实例之间不一致
package redis

import (
	"context"
	"path"
	"sync"
	"time"

	"edumsg_server/pkg/errorx"
)

// memEntry 单个键的存储单元
type memEntry struct {
	value     string
	count     int64
	expiresAt time.Time // 零值表示永不过期
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache CacheService 的进程内实现
// 所有操作持锁完成，满足单进程内的原子性要求
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memEntry
}

// NewMemoryCache 创建内存缓存实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*memEntry)}
}

// Set 设置键值对并指定过期时间
func (m *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Get 获取键对应的值（键不存在返回空字符串和 nil）
func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || e.expired(time.Now()) {
		return "", nil
	}
	return e.value, nil
}

// GetOrError 获取键对应的值（键不存在返回错误）
func (m *MemoryCache) GetOrError(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || e.expired(time.Now()) {
		return "", errorx.Newf(errorx.CodeNotFound, "cache key %s not found", key)
	}
	return e.value, nil
}

// Delete 删除键（如果存在）
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// DeleteByPattern 删除匹配模式的所有键（glob 语义，同 Redis 的 SCAN MATCH）
func (m *MemoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

// IncrWindow 原子自增固定窗口计数器
func (m *MemoryCache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	e, ok := m.entries[key]
	if !ok || e.expired(now) {
		e = &memEntry{count: 0, expiresAt: now.Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, e.expiresAt, nil
}

// SetNX 键不存在时写入
func (m *MemoryCache) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if e, ok := m.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	e := &memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.entries[key] = e
	return true, nil
}

// SubmitTask 同步执行任务
// 内存实现没有跨进程共享状态，同步执行让测试具有确定性
func (m *MemoryCache) SubmitTask(action func()) {
	if action != nil {
		action()
	}
}

// 确保 MemoryCache 实现了 AsyncCacheService 接口
var _ AsyncCacheService = (*MemoryCache)(nil)
