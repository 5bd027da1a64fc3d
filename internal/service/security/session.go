// Package security 提供消息核心的安全能力
// 本文件实现登录会话管理：一次登录一条会话，支持并发会话与独立吊销
package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/internal/dao/redis"
	"edumsg_server/internal/model"
	"edumsg_server/pkg/constants"
	"edumsg_server/pkg/errorx"
	"edumsg_server/pkg/util/random"
)

// cleanupLockKey 过期会话清理的分布式锁键
// 多实例部署时每个清理周期只由一个实例执行
const cleanupLockKey = "session_cleanup_lock"

// Fingerprint 计算设备指纹
// sha256(userAgent + "|" + ip) 的 hex 编码，绑定令牌的签发环境
func Fingerprint(userAgent, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + "|" + ip))
	return hex.EncodeToString(sum[:])
}

// SessionManager 登录会话管理器
// 同一用户允许多个并发会话（多设备登录），每个会话可独立吊销
type SessionManager struct {
	repos       *repository.Repositories
	tokens      *TokenService
	cache       redis.CacheService
	maxDuration time.Duration
}

// NewSessionManager 创建会话管理器
func NewSessionManager(conf *config.Config, repos *repository.Repositories, tokens *TokenService, cache redis.CacheService) *SessionManager {
	hours := conf.SecurityConfig.SessionMaxHours
	if hours <= 0 || hours > constants.SESSION_MAX_HOURS {
		hours = constants.SESSION_MAX_HOURS
	}
	return &SessionManager{
		repos:       repos,
		tokens:      tokens,
		cache:       cache,
		maxDuration: time.Duration(hours) * time.Hour,
	}
}

// Create 创建登录会话并签发绑定设备的令牌
// 会话 ID 永远由服务端随机生成，不接受调用方提供（防会话固定）
// 返回: 会话记录、令牌串
func (m *SessionManager) Create(userId, role, ip, userAgent string) (*model.LoginSession, string, error) {
	fingerprint := Fingerprint(userAgent, ip)

	tokenString, jti, _, err := m.tokens.Generate(userId, role, fingerprint)
	if err != nil {
		return nil, "", err
	}

	session := &model.LoginSession{
		Uuid:              random.GetRandomHex(constants.SESSION_ID_BYTES),
		UserId:            userId,
		DeviceFingerprint: fingerprint,
		IpAddress:         ip,
		TokenJti:          jti,
		ExpiresAt:         time.Now().Add(m.maxDuration),
		IsActive:          true,
	}
	if err := m.repos.Session.Create(session); err != nil {
		return nil, "", err
	}

	zap.L().Info("login session created",
		zap.String("user_id", userId),
		zap.String("session_id", session.Uuid),
		zap.String("ip", ip))
	return session, tokenString, nil
}

// Validate 校验会话有效性
// 检查：存在、未吊销、未过期、设备指纹一致
func (m *SessionManager) Validate(sessionId, fingerprint string) (*model.LoginSession, error) {
	session, err := m.repos.Session.FindByUuid(sessionId)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeUnauthorized, "会话不存在")
	}
	if !session.IsActive || session.Expired(time.Now()) {
		return nil, errorx.New(errorx.CodeUnauthorized, "会话已失效")
	}
	if session.DeviceFingerprint != fingerprint {
		return nil, errorx.New(errorx.CodeUnauthorized, "设备指纹不匹配")
	}
	return session, nil
}

// Revoke 吊销单个会话
// 注销会话记录的同时把对应令牌的 jti 写入吊销集合，
// 令牌立即失效而不是等到自然过期
func (m *SessionManager) Revoke(ctx context.Context, sessionId string) error {
	session, err := m.repos.Session.FindByUuid(sessionId)
	if err != nil {
		return err
	}
	if err := m.repos.Session.Deactivate(session.Uuid); err != nil {
		return err
	}
	// 令牌有效期上界是会话过期时间，以它为 TTL 足够覆盖
	if err := m.tokens.RevokeJti(ctx, session.TokenJti, session.ExpiresAt); err != nil {
		return err
	}
	zap.L().Info("login session revoked",
		zap.String("user_id", session.UserId),
		zap.String("session_id", session.Uuid))
	return nil
}

// RevokeAll 吊销用户的全部会话（改密码、封号等场景）
func (m *SessionManager) RevokeAll(ctx context.Context, userId string) error {
	sessions, err := m.repos.Session.FindActiveByUser(userId)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := m.tokens.RevokeJti(ctx, session.TokenJti, session.ExpiresAt); err != nil {
			return err
		}
	}
	if err := m.repos.Session.DeactivateByUser(userId); err != nil {
		return err
	}
	zap.L().Info("all login sessions revoked", zap.String("user_id", userId), zap.Int("count", len(sessions)))
	return nil
}

// CleanupExpired 物理清理已过期的会话行
// 由后台定时任务调用；先抢分布式锁，没抢到说明别的实例正在清理
func (m *SessionManager) CleanupExpired(ctx context.Context) {
	acquired, err := m.cache.SetNX(ctx, cleanupLockKey, "1", 30*time.Minute)
	if err != nil {
		zap.L().Error("acquire session cleanup lock failed", zap.Error(err))
		return
	}
	if !acquired {
		return
	}

	count, err := m.repos.Session.DeleteExpired(time.Now())
	if err != nil {
		zap.L().Error("cleanup expired sessions failed", zap.Error(err))
		return
	}
	if count > 0 {
		zap.L().Info("expired sessions cleaned", zap.Int64("count", count))
	}
}
