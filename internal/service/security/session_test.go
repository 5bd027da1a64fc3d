package security

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/internal/dao/redis"
	"edumsg_server/internal/model"
	"edumsg_server/pkg/errorx"
)

// cleanerSessionRepo 只统计清理调用次数的会话桩
type cleanerSessionRepo struct {
	mu          sync.Mutex
	deleteCalls int
}

func (f *cleanerSessionRepo) FindByUuid(uuid string) (*model.LoginSession, error) {
	return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
}

func (f *cleanerSessionRepo) FindActiveByUser(userId string) ([]model.LoginSession, error) {
	return nil, nil
}

func (f *cleanerSessionRepo) Create(session *model.LoginSession) error { return nil }
func (f *cleanerSessionRepo) Deactivate(uuid string) error             { return nil }
func (f *cleanerSessionRepo) DeactivateByUser(userId string) error     { return nil }

func (f *cleanerSessionRepo) DeleteExpired(before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return 0, nil
}

func TestCleanupExpiredTakesLock(t *testing.T) {
	conf := &config.Config{}
	conf.SecurityConfig.SessionMaxHours = 24

	sessionRepo := &cleanerSessionRepo{}
	repos := &repository.Repositories{Session: sessionRepo}
	cache := redis.NewMemoryCache()
	manager := NewSessionManager(conf, repos, NewTokenService(conf, cache), cache)

	ctx := context.Background()
	manager.CleanupExpired(ctx)
	// 锁还在，本轮其他实例（这里模拟为第二次调用）跳过清理
	manager.CleanupExpired(ctx)

	assert.Equal(t, 1, sessionRepo.deleteCalls)
}
