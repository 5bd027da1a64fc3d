// Package redis 定义缓存与原子 KV 服务接口
// 遵循依赖倒置原则，Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存/原子 KV 服务接口
// 抽象缓存与计数操作，支持 Redis、本地内存等多种实现
// 限流计数器与令牌吊销集合都建立在该接口的原子操作之上，
// 多实例部署时必须使用 Redis 实现，内存实现仅用于单机与测试
type CacheService interface {
	// ==================== String 操作 ====================

	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// GetOrError 获取键对应的值（键不存在返回 CodeNotFound 错误）
	GetOrError(ctx context.Context, key string) (string, error)

	// ==================== Key 操作 ====================

	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error
	// DeleteByPattern 删除匹配模式的所有键
	DeleteByPattern(ctx context.Context, pattern string) error

	// ==================== 原子操作 ====================

	// IncrWindow 原子自增固定窗口计数器
	// 键首次出现时创建并设置 window 过期时间；返回自增后的计数值
	// 与窗口剩余的重置时间。并发调用不会丢失更新，计数本身即准入判据
	IncrWindow(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
	// SetNX 键不存在时写入，返回是否写入成功
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

// AsyncCacheService 异步缓存服务接口
// 提供异步任务提交能力，用于非阻塞缓存更新
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务
	SubmitTask(action func())
}
