package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/internal/dao/redis"
	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/model"
	"edumsg_server/internal/service/security"
	"edumsg_server/pkg/errorx"
)

// ==================== 内存 Repository 桩 ====================

type fakeProfileRepo struct {
	mu      sync.Mutex
	byUuid  map[string]*model.UserProfile
	byEmail map[string]*model.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		byUuid:  make(map[string]*model.UserProfile),
		byEmail: make(map[string]*model.UserProfile),
	}
}

func (f *fakeProfileRepo) FindByUuid(uuid string) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byUuid[uuid]; ok {
		return p, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
}

func (f *fakeProfileRepo) FindByEmail(email string) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byEmail[email]; ok {
		return p, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
}

func (f *fakeProfileRepo) FindByUuids(uuids []string) ([]model.UserProfile, error) {
	return nil, nil
}

func (f *fakeProfileRepo) Create(profile *model.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[profile.Email]; ok {
		return errorx.New(errorx.CodeConflict, "邮箱已存在")
	}
	f.byUuid[profile.Uuid] = profile
	f.byEmail[profile.Email] = profile
	return nil
}

func (f *fakeProfileRepo) Update(profile *model.UserProfile) error { return nil }

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.LoginSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.LoginSession)}
}

func (f *fakeSessionRepo) FindByUuid(uuid string) (*model.LoginSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[uuid]; ok {
		return s, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
}

func (f *fakeSessionRepo) FindActiveByUser(userId string) ([]model.LoginSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.LoginSession
	for _, s := range f.sessions {
		if s.UserId == userId && s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (f *fakeSessionRepo) Create(session *model.LoginSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.Uuid] = session
	return nil
}

func (f *fakeSessionRepo) Deactivate(uuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[uuid]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeSessionRepo) DeactivateByUser(userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserId == userId {
			s.IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(before time.Time) (int64, error) { return 0, nil }

// ==================== 测试装配 ====================

func testService() (*Service, *security.Service) {
	conf := &config.Config{}
	conf.JWTConfig = config.JWTConfig{
		Secret:            "test-secret-0123456789abcdef0123456789",
		Issuer:            "edumsg",
		Audience:          "edumsg_client",
		AccessTokenExpiry: 60,
	}
	conf.SecurityConfig = config.SecurityConfig{
		SessionMaxHours:   24,
		LoginMaxPerWindow: 5,
		WindowSeconds:     60,
	}

	repos := &repository.Repositories{
		Profile: newFakeProfileRepo(),
		Session: newFakeSessionRepo(),
	}
	sec := security.NewService(conf, repos, redis.NewMemoryCache())
	return NewService(conf, repos, sec), sec
}

func register(t *testing.T, svc *Service, email string) string {
	t.Helper()
	rsp, err := svc.Register(context.Background(), request.RegisterRequest{
		FullName: "张同学",
		Email:    email,
		Password: "pass-word-1",
		Role:     model.RoleStudent,
	})
	require.NoError(t, err)
	return rsp.UserId
}

// ==================== 用例 ====================

func TestRegisterAndLogin(t *testing.T) {
	svc, sec := testService()
	ctx := context.Background()

	userId := register(t, svc, "student@example.com")
	assert.NotEmpty(t, userId)

	rsp, err := svc.Login(ctx, request.LoginRequest{
		Email:    "student@example.com",
		Password: "pass-word-1",
	}, "10.0.0.1", "Mozilla/5.0")
	require.NoError(t, err)
	assert.Equal(t, userId, rsp.UserId)
	assert.Equal(t, model.RoleStudent, rsp.Role)
	require.NotEmpty(t, rsp.Token)
	require.NotEmpty(t, rsp.SessionId)

	// 签发的令牌绑定登录设备
	fp := security.Fingerprint("Mozilla/5.0", "10.0.0.1")
	claims, err := sec.VerifyToken(ctx, rsp.Token, fp)
	require.NoError(t, err)
	assert.Equal(t, userId, claims.UserId)

	// 其他设备不能使用该令牌
	otherFp := security.Fingerprint("curl/8.0", "10.9.9.9")
	_, err = sec.VerifyToken(ctx, rsp.Token, otherFp)
	require.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := testService()
	register(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), request.RegisterRequest{
		FullName: "李同学",
		Email:    "dup@example.com",
		Password: "pass-word-2",
		Role:     model.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUserExist, errorx.GetCode(err))
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	_, err := svc.Register(ctx, request.RegisterRequest{
		FullName: "王同学", Email: "bad-email", Password: "pass-word-1", Role: model.RoleStudent,
	})
	require.Error(t, err)

	_, err = svc.Register(ctx, request.RegisterRequest{
		FullName: "王同学", Email: "ok@example.com", Password: "pass-word-1", Role: "superuser",
	})
	require.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := testService()
	register(t, svc, "student@example.com")
	ctx := context.Background()

	_, err := svc.Login(ctx, request.LoginRequest{
		Email:    "student@example.com",
		Password: "wrong-password",
	}, "10.0.0.1", "Mozilla/5.0")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))

	// 账号不存在返回完全相同的错误分类，不暴露账号是否存在
	_, err2 := svc.Login(ctx, request.LoginRequest{
		Email:    "nobody@example.com",
		Password: "wrong-password",
	}, "10.0.0.1", "Mozilla/5.0")
	require.Error(t, err2)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err2))
	assert.Equal(t, err.Error(), err2.Error())
}

func TestLoginRateLimited(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	// 同一 IP 连续尝试，超过窗口上限后直接拒绝
	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, request.LoginRequest{
			Email: "nobody@example.com", Password: "x-password",
		}, "10.0.0.1", "Mozilla/5.0")
		require.Error(t, err)
		assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
	}
	_, err := svc.Login(ctx, request.LoginRequest{
		Email: "nobody@example.com", Password: "x-password",
	}, "10.0.0.1", "Mozilla/5.0")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeRateLimited, errorx.GetCode(err))

	// 其他 IP 不受影响
	_, err = svc.Login(ctx, request.LoginRequest{
		Email: "nobody@example.com", Password: "x-password",
	}, "10.0.0.2", "Mozilla/5.0")
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, sec := testService()
	register(t, svc, "student@example.com")
	ctx := context.Background()

	rsp, err := svc.Login(ctx, request.LoginRequest{
		Email: "student@example.com", Password: "pass-word-1",
	}, "10.0.0.1", "Mozilla/5.0")
	require.NoError(t, err)

	fp := security.Fingerprint("Mozilla/5.0", "10.0.0.1")
	_, err = sec.VerifyToken(ctx, rsp.Token, fp)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, rsp.UserId, rsp.SessionId))

	// 登出后令牌立即失效
	_, err = sec.VerifyToken(ctx, rsp.Token, fp)
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestLogoutForeignSessionForbidden(t *testing.T) {
	svc, _ := testService()
	register(t, svc, "a@example.com")
	register(t, svc, "b@example.com")
	ctx := context.Background()

	rspA, err := svc.Login(ctx, request.LoginRequest{
		Email: "a@example.com", Password: "pass-word-1",
	}, "10.0.0.1", "Mozilla/5.0")
	require.NoError(t, err)
	rspB, err := svc.Login(ctx, request.LoginRequest{
		Email: "b@example.com", Password: "pass-word-1",
	}, "10.0.0.2", "Mozilla/5.0")
	require.NoError(t, err)

	// B 不能注销 A 的会话
	err = svc.Logout(ctx, rspB.UserId, rspA.SessionId)
	require.Error(t, err)
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))
}
