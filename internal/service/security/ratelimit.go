// Package security 提供消息核心的安全能力
// 本文件实现固定窗口限流器，计数状态存放在外部原子 KV 中，
// 多实例部署时各实例共享同一份计数
package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"edumsg_server/internal/dao/redis"
	"edumsg_server/pkg/errorx"
)

// RateLimitPolicy 限流策略
type RateLimitPolicy struct {
	MaxRequests int           // 窗口内最大放行次数
	Window      time.Duration // 窗口长度
}

// RateLimitResult 限流判定结果
// 对外契约：{allowed, remaining, reset_time}
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int64     `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// LimitExceededError 超出限流
// 携带判定结果，调用方可据此返回 remaining/reset_time 供客户端退避
type LimitExceededError struct {
	Key    string
	Result RateLimitResult
	inner  *errorx.CodeError
}

func (e *LimitExceededError) Error() string {
	return e.inner.Error()
}

// Unwrap 暴露内部 CodeError，errorx.GetCode 可提取 CodeRateLimited
func (e *LimitExceededError) Unwrap() error {
	return e.inner
}

// RateLimiter 固定窗口限流器
type RateLimiter struct {
	cache redis.CacheService
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cache redis.CacheService) *RateLimiter {
	return &RateLimiter{cache: cache}
}

// bucketKey 构造计数键
// actor 部分取 sha256：不做大小写/空白归一化，任何两个不同的原始
// 主体都落在不同的桶里，构造变体无法挤进别人的桶，也无法借归一化
// 逃出自己的桶；同时保证键对存储后端安全
func bucketKey(action, actor string) string {
	sum := sha256.Sum256([]byte(actor))
	return fmt.Sprintf("ratelimit:%s:%s", action, hex.EncodeToString(sum[:]))
}

// Check 限流判定
// 底层是原子自增：并发调用同一个键不会丢失计数，窗口内放行数
// 严格不超过 MaxRequests。放行返回 (result, nil)；超限返回
// (result, *LimitExceededError)；存储故障返回错误并拒绝放行
func (l *RateLimiter) Check(ctx context.Context, action, actor string, policy RateLimitPolicy) (RateLimitResult, error) {
	key := bucketKey(action, actor)

	count, resetAt, err := l.cache.IncrWindow(ctx, key, policy.Window)
	if err != nil {
		return RateLimitResult{}, errorx.Wrapf(err, errorx.CodeCacheError, "限流计数失败 action=%s", action)
	}

	remaining := int64(policy.MaxRequests) - count
	if remaining < 0 {
		remaining = 0
	}
	result := RateLimitResult{
		Allowed:   count <= int64(policy.MaxRequests),
		Remaining: remaining,
		ResetTime: resetAt,
	}
	if !result.Allowed {
		return result, &LimitExceededError{
			Key:    key,
			Result: result,
			inner:  errorx.Newf(errorx.CodeRateLimited, "请求过于频繁，请在 %s 后重试", time.Until(resetAt).Round(time.Second)),
		}
	}
	return result, nil
}
