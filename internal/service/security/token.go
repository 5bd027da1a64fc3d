// Package security 提供消息核心的安全能力
// 本文件实现令牌服务：签发、校验、吊销，支持设备指纹绑定
package security

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/redis"
	"edumsg_server/pkg/errorx"
)

// revokedKeyPrefix 吊销集合的键前缀
// 键的 TTL 等于令牌剩余有效期，集合自动收敛，不会无限增长
const revokedKeyPrefix = "revoked_jti:"

// placeholderJti 解析失败时用于吊销查询的占位 jti
// 保证失败路径也执行一次等价的缓存查询，耗时特征与成功路径一致
const placeholderJti = "00000000-0000-0000-0000-000000000000"

func revokedKey(jti string) string {
	return revokedKeyPrefix + jti
}

// TokenClaims 令牌声明
// 对外契约：{userId, role, jti, iat, nbf, exp, iss, aud, deviceFingerprint?}
type TokenClaims struct {
	UserId            string `json:"userId"`
	Role              string `json:"role"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
	jwt.RegisteredClaims
}

// TokenService 令牌服务
// 令牌本身无状态，唯一的持久化状态是吊销集合（jti → revoked）
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	cache    redis.CacheService
}

// NewTokenService 创建令牌服务
func NewTokenService(conf *config.Config, cache redis.CacheService) *TokenService {
	return &TokenService{
		secret:   []byte(conf.JWTConfig.Secret),
		issuer:   conf.JWTConfig.Issuer,
		audience: conf.JWTConfig.Audience,
		expiry:   time.Duration(conf.JWTConfig.AccessTokenExpiry) * time.Minute,
		cache:    cache,
	}
}

// keyFunc 返回签名密钥
// 签名算法由服务端固定为 HS256，不从令牌头读取
func (s *TokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	return s.secret, nil
}

// Generate 签发令牌
// 每次签发生成全新的随机 jti；deviceFingerprint 非空时嵌入声明，
// 供 Verify 做设备绑定校验
// 返回: 签名后的令牌串、jti、过期时间
func (s *TokenService) Generate(userId, role, deviceFingerprint string) (string, string, time.Time, error) {
	now := time.Now()
	jti := uuid.NewString()
	expiresAt := now.Add(s.expiry)

	claims := TokenClaims{
		UserId:            userId,
		Role:              role,
		DeviceFingerprint: deviceFingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userId,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", time.Time{}, errorx.Wrap(err, errorx.CodeServerBusy, "签发token失败")
	}
	return signed, jti, expiresAt, nil
}

// Verify 校验令牌
// 依次检查：签名算法与签名、exp/nbf、iss/aud、吊销集合、设备指纹。
// 所有检查全部执行完再返回第一个失败：失败路径不提前返回，
// 避免通过耗时差异推断具体是哪一项检查失败。
// deviceFingerprint 为空串时跳过设备绑定检查（但仍执行等价比较）
func (s *TokenService) Verify(ctx context.Context, tokenString, deviceFingerprint string) (*TokenClaims, error) {
	var failure error

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		failure = errorx.Wrap(err, errorx.CodeUnauthorized, "token校验失败")
	}

	// 吊销检查：解析失败时也用占位 jti 查一次，平衡耗时
	jti := claims.ID
	if jti == "" {
		jti = placeholderJti
	}
	revokedVal, rerr := s.cache.Get(ctx, revokedKey(jti))
	if rerr != nil {
		// 吊销集合不可用时拒绝放行（fail-closed）
		if failure == nil {
			failure = errorx.Wrap(rerr, errorx.CodeCacheError, "吊销集合查询失败")
		}
	} else if revokedVal != "" && failure == nil {
		failure = errorx.New(errorx.CodeUnauthorized, "token已吊销")
	}

	// 设备绑定检查：常数时间比较
	expected := []byte(claims.DeviceFingerprint)
	presented := []byte(deviceFingerprint)
	match := subtle.ConstantTimeCompare(expected, presented) == 1
	if deviceFingerprint != "" && !match && failure == nil {
		failure = errorx.New(errorx.CodeUnauthorized, "设备指纹不匹配")
	}

	if failure != nil {
		return nil, failure
	}
	return claims, nil
}

// Revoke 吊销令牌
// 把 jti 写入吊销集合，TTL 等于令牌剩余有效期。
// 解析时跳过声明校验：已过期的令牌吊销是幂等的空操作
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	claims := &TokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(tokenString, claims, s.keyFunc); err != nil {
		return errorx.Wrap(err, errorx.CodeUnauthorized, "token解析失败")
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return errorx.New(errorx.CodeInvalidParam, "token缺少jti或过期时间")
	}
	return s.RevokeJti(ctx, claims.ID, claims.ExpiresAt.Time)
}

// RevokeJti 按 jti 吊销
// Set 返回即写入完成：此后任意实例的 Verify 都会看到该 jti 已吊销，
// 不存在确认吊销后仍放行的窗口
func (s *TokenService) RevokeJti(ctx context.Context, jti string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		// 令牌已自然过期，无需入集合
		return nil
	}
	return s.cache.Set(ctx, revokedKey(jti), "1", remaining)
}
