package urlcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealAndOpen(t *testing.T) {
	c := NewCryptor("some-config-secret")

	token, err := c.Seal([]byte(`{"p":"attachments/C1/a.pdf","exp":1735500000}`))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	plain, err := c.Open(token)
	require.NoError(t, err)
	assert.Equal(t, `{"p":"attachments/C1/a.pdf","exp":1735500000}`, string(plain))
}

func TestSealNonceUnique(t *testing.T) {
	c := NewCryptor("some-config-secret")
	t1, err := c.Seal([]byte("same payload"))
	require.NoError(t, err)
	t2, err := c.Seal([]byte("same payload"))
	require.NoError(t, err)
	// 每次加密使用新的随机 Nonce，相同明文的令牌不同
	assert.NotEqual(t, t1, t2)
}

func TestOpenRejectsTampered(t *testing.T) {
	c := NewCryptor("some-config-secret")
	token, err := c.Seal([]byte("payload"))
	require.NoError(t, err)

	tampered := []byte(token)
	if tampered[len(tampered)-1] == 'A' {
		tampered[len(tampered)-1] = 'B'
	} else {
		tampered[len(tampered)-1] = 'A'
	}
	_, err = c.Open(string(tampered))
	assert.Error(t, err)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	token, err := NewCryptor("secret-one").Seal([]byte("payload"))
	require.NoError(t, err)
	_, err = NewCryptor("secret-two").Open(token)
	assert.Error(t, err)
}

func TestOpenRejectsMalformed(t *testing.T) {
	c := NewCryptor("some-config-secret")
	_, err := c.Open("not base64 !!!")
	assert.Error(t, err)
	_, err = c.Open("QQ") // 合法 base64 但短于 Nonce
	assert.Error(t, err)
}
