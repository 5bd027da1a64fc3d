// Package security 提供消息核心的安全能力
// 本文件是安全服务门面：组合令牌、凭证、会话、限流四个子服务，
// 消息门面的每个变更操作都经由它做认证与节流
package security

import (
	"context"
	"time"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/internal/dao/redis"
	"edumsg_server/internal/model"
)

// Service 安全服务门面
type Service struct {
	Tokens      *TokenService
	Credentials *CredentialService
	Limiter     *RateLimiter
	Sessions    *SessionManager

	conf *config.Config
}

// NewService 创建安全服务
// 依赖注入：Repository 聚合提供会话持久化，CacheService 提供
// 限流计数与吊销集合的原子存储
func NewService(conf *config.Config, repos *repository.Repositories, cache redis.CacheService) *Service {
	tokens := NewTokenService(conf, cache)
	return &Service{
		Tokens:      tokens,
		Credentials: NewCredentialService(),
		Limiter:     NewRateLimiter(cache),
		Sessions:    NewSessionManager(conf, repos, tokens, cache),
		conf:        conf,
	}
}

// ==================== 限流策略 ====================

func (s *Service) window() time.Duration {
	return time.Duration(s.conf.SecurityConfig.WindowSeconds) * time.Second
}

// LoginPolicy 登录限流策略（按来源 IP）
func (s *Service) LoginPolicy() RateLimitPolicy {
	return RateLimitPolicy{MaxRequests: s.conf.SecurityConfig.LoginMaxPerWindow, Window: s.window()}
}

// ConversationPolicy 创建会话限流策略（按用户）
func (s *Service) ConversationPolicy() RateLimitPolicy {
	return RateLimitPolicy{MaxRequests: s.conf.SecurityConfig.ConvMaxPerWindow, Window: s.window()}
}

// MessagePolicy 发送消息限流策略（按用户，上限高于会话创建）
func (s *Service) MessagePolicy() RateLimitPolicy {
	return RateLimitPolicy{MaxRequests: s.conf.SecurityConfig.MsgMaxPerWindow, Window: s.window()}
}

// UploadPolicy 上传附件限流策略（按用户）
func (s *Service) UploadPolicy() RateLimitPolicy {
	return RateLimitPolicy{MaxRequests: s.conf.SecurityConfig.UploadMaxPerWindow, Window: s.window()}
}

// ==================== 门面方法 ====================

// VerifyToken 校验令牌并做设备绑定检查
func (s *Service) VerifyToken(ctx context.Context, token, deviceFingerprint string) (*TokenClaims, error) {
	return s.Tokens.Verify(ctx, token, deviceFingerprint)
}

// RevokeToken 吊销令牌
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	return s.Tokens.Revoke(ctx, token)
}

// CheckRateLimit 限流判定
func (s *Service) CheckRateLimit(ctx context.Context, action, actor string, policy RateLimitPolicy) (RateLimitResult, error) {
	return s.Limiter.Check(ctx, action, actor, policy)
}

// CreateSession 创建登录会话（含令牌签发与设备绑定）
func (s *Service) CreateSession(userId, role, ip, userAgent string) (*model.LoginSession, string, error) {
	return s.Sessions.Create(userId, role, ip, userAgent)
}
