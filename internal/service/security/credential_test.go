package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	svc := NewCredentialService()

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	// 明文绝不允许出现在哈希里
	assert.NotContains(t, hash, "s3cret-pass")

	assert.True(t, svc.VerifyPassword("s3cret-pass", hash))
	assert.False(t, svc.VerifyPassword("wrong-pass", hash))
}

func TestHashPasswordSaltUnique(t *testing.T) {
	svc := NewCredentialService()
	h1, err := svc.HashPassword("same-password")
	require.NoError(t, err)
	h2, err := svc.HashPassword("same-password")
	require.NoError(t, err)
	// bcrypt 内置随机盐，同一明文两次哈希结果不同
	assert.NotEqual(t, h1, h2)
}

func TestHashPasswordRejectsEmptyAndOverlong(t *testing.T) {
	svc := NewCredentialService()

	_, err := svc.HashPassword("")
	require.Error(t, err)

	// bcrypt 输入上限 72 字节，超长拒绝而不是截断
	_, err = svc.HashPassword(strings.Repeat("a", 73))
	require.Error(t, err)

	_, err = svc.HashPassword(strings.Repeat("a", 72))
	require.NoError(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	svc := NewCredentialService()
	// 存储哈希损坏时返回 false，不 panic
	assert.False(t, svc.VerifyPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, svc.VerifyPassword("anything", ""))
}

func TestValidateEmail(t *testing.T) {
	svc := NewCredentialService()

	require.NoError(t, svc.ValidateEmail("student@example.com"))
	require.NoError(t, svc.ValidateEmail("a.b+c@sub.example.cn"))

	for _, bad := range []string{
		"",
		"no-at-sign",
		"@example.com",
		"user@",
		"user@nodot",
		strings.Repeat("a", 95) + "@example.com", // 超过 100 字符
	} {
		assert.Error(t, svc.ValidateEmail(bad), "email=%q", bad)
	}
}
