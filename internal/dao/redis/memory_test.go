package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k1", "v1", 0))
	val, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	// 不存在的键：Get 返回空串，GetOrError 返回错误
	val, err = cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, val)
	_, err = cache.GetOrError(ctx, "missing")
	assert.Error(t, err)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k1", "v1", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	val, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "unread_total:U001", "3", 0))
	require.NoError(t, cache.Set(ctx, "unread_total:U002", "5", 0))
	require.NoError(t, cache.Set(ctx, "revoked_jti:abc", "1", 0))

	require.NoError(t, cache.DeleteByPattern(ctx, "unread_total:*"))

	val, _ := cache.Get(ctx, "unread_total:U001")
	assert.Empty(t, val)
	val, _ = cache.Get(ctx, "unread_total:U002")
	assert.Empty(t, val)
	val, _ = cache.Get(ctx, "revoked_jti:abc")
	assert.Equal(t, "1", val)
}

func TestMemoryCacheIncrWindow(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	count, resetAt, err := cache.IncrWindow(ctx, "bucket", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, resetAt.After(time.Now()))

	count, _, err = cache.IncrWindow(ctx, "bucket", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 窗口过期后计数重新开始
	time.Sleep(60 * time.Millisecond)
	count, _, err = cache.IncrWindow(ctx, "bucket", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryCacheSetNX(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	ok, err := cache.SetNX(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "lock", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, _ := cache.Get(ctx, "lock")
	assert.Equal(t, "a", val)
}

func TestMemoryCacheSubmitTaskSynchronous(t *testing.T) {
	cache := NewMemoryCache()
	done := false
	cache.SubmitTask(func() { done = true })
	assert.True(t, done)
}
