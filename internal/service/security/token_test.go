package security

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/redis"
	"edumsg_server/pkg/errorx"
)

func testTokenService() *TokenService {
	conf := &config.Config{}
	conf.JWTConfig = config.JWTConfig{
		Secret:            "test-secret-0123456789abcdef0123456789",
		Issuer:            "edumsg",
		Audience:          "edumsg_client",
		AccessTokenExpiry: 60,
	}
	return NewTokenService(conf, redis.NewMemoryCache())
}

func TestTokenGenerateAndVerify(t *testing.T) {
	svc := testTokenService()
	fp := Fingerprint("Mozilla/5.0", "10.0.0.1")

	signed, jti, expiresAt, err := svc.Generate("U001", "student", fp)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.NotEmpty(t, jti)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.Verify(context.Background(), signed, fp)
	require.NoError(t, err)
	assert.Equal(t, "U001", claims.UserId)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestTokenVerifyTampered(t *testing.T) {
	svc := testTokenService()
	signed, _, _, err := svc.Generate("U001", "student", "")
	require.NoError(t, err)

	// 篡改载荷段的一个字符
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = svc.Verify(context.Background(), tampered, "")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestTokenVerifyGarbage(t *testing.T) {
	svc := testTokenService()
	_, err := svc.Verify(context.Background(), "not-a-token", "")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestTokenVerifyDeviceMismatch(t *testing.T) {
	svc := testTokenService()
	fp := Fingerprint("Mozilla/5.0", "10.0.0.1")
	signed, _, _, err := svc.Generate("U001", "student", fp)
	require.NoError(t, err)

	otherFp := Fingerprint("Mozilla/5.0", "10.0.0.2")
	_, err = svc.Verify(context.Background(), signed, otherFp)
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestTokenRevoke(t *testing.T) {
	svc := testTokenService()
	signed, _, _, err := svc.Generate("U001", "student", "")
	require.NoError(t, err)

	// 吊销前可用
	_, err = svc.Verify(context.Background(), signed, "")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), signed))

	// 吊销立即生效
	_, err = svc.Verify(context.Background(), signed, "")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))

	// 重复吊销是幂等的
	require.NoError(t, svc.Revoke(context.Background(), signed))
}

func TestTokenRevokeJtiExpired(t *testing.T) {
	svc := testTokenService()
	// 已过期令牌的 jti 不需要进吊销集合
	err := svc.RevokeJti(context.Background(), "some-jti", time.Now().Add(-time.Minute))
	require.NoError(t, err)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	svc := testTokenService()
	signed, _, _, err := svc.Generate("U001", "student", "")
	require.NoError(t, err)

	other := testTokenService()
	other.secret = []byte("another-secret-entirely-000000000000")
	_, err = other.Verify(context.Background(), signed, "")
	require.Error(t, err)
}
