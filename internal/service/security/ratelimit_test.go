package security

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edumsg_server/internal/dao/redis"
	"edumsg_server/pkg/errorx"
)

func TestRateLimitWindowExhaustion(t *testing.T) {
	limiter := NewRateLimiter(redis.NewMemoryCache())
	policy := RateLimitPolicy{MaxRequests: 5, Window: time.Minute}
	ctx := context.Background()

	// 前 5 次放行，remaining 递减
	for i := 0; i < 5; i++ {
		result, err := limiter.Check(ctx, "login", "10.0.0.1", policy)
		require.NoError(t, err, "call %d", i+1)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(4-i), result.Remaining)
	}

	// 第 6 次拒绝，错误携带判定结果
	result, err := limiter.Check(ctx, "login", "10.0.0.1", policy)
	require.Error(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(0), result.Remaining)
	assert.True(t, result.ResetTime.After(time.Now()))

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.False(t, limitErr.Result.Allowed)
	assert.Equal(t, errorx.CodeRateLimited, errorx.GetCode(err))
}

func TestRateLimitKeysIndependent(t *testing.T) {
	limiter := NewRateLimiter(redis.NewMemoryCache())
	policy := RateLimitPolicy{MaxRequests: 1, Window: time.Minute}
	ctx := context.Background()

	_, err := limiter.Check(ctx, "login", "10.0.0.1", policy)
	require.NoError(t, err)
	_, err = limiter.Check(ctx, "login", "10.0.0.1", policy)
	require.Error(t, err)

	// 不同主体、不同动作各自独立计数
	_, err = limiter.Check(ctx, "login", "10.0.0.2", policy)
	require.NoError(t, err)
	_, err = limiter.Check(ctx, "message_send", "10.0.0.1", policy)
	require.NoError(t, err)
}

func TestRateLimitActorNotNormalized(t *testing.T) {
	limiter := NewRateLimiter(redis.NewMemoryCache())
	policy := RateLimitPolicy{MaxRequests: 1, Window: time.Minute}
	ctx := context.Background()

	// 大小写、空白变体都是不同的桶，无法借归一化互相挤占
	for _, actor := range []string{"User", "user", "USER", " user", "user "} {
		_, err := limiter.Check(ctx, "login", actor, policy)
		require.NoError(t, err, "actor=%q", actor)
	}
}

func TestRateLimitConcurrent(t *testing.T) {
	limiter := NewRateLimiter(redis.NewMemoryCache())
	policy := RateLimitPolicy{MaxRequests: 5, Window: time.Minute}
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := limiter.Check(ctx, "message_send", "U001", policy); err == nil {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	// 原子自增保证放行数严格等于上限
	assert.Equal(t, int64(5), allowed)
}
