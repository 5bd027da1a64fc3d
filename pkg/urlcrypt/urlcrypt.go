// Package urlcrypt 提供签名 URL 令牌的加解密
// 使用 AES-GCM 将存储路径和过期时间封装为不可伪造的不透明令牌
package urlcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// Cryptor 对称加密器
// key 经 SHA-256 归一化为 32 字节，任意长度的配置密钥都可用
type Cryptor struct {
	key []byte
}

// NewCryptor 创建加密器实例
func NewCryptor(secret string) *Cryptor {
	sum := sha256.Sum256([]byte(secret))
	return &Cryptor{key: sum[:]}
}

// Seal 加密数据并返回 URL 安全的 base64 令牌
func (c *Cryptor) Seal(data []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	// 使用 GCM 模式
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// GCM 需要一个随机的 Nonce（类似 IV，但更安全）
	// 每次加密都应该生成一个新的随机 Nonce
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// 加密并附加 Nonce 在密文头部
	// Seal(dst, nonce, plaintext, additionalData)
	ciphertext := aesGCM.Seal(nonce, nonce, data, nil)

	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Open 解密令牌并返回原始数据
// 令牌被篡改时 GCM 校验失败，返回错误
func (c *Cryptor) Open(token string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(raw) < nonceSize {
		return nil, errors.New("urlcrypt: token too short")
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	return aesGCM.Open(nil, nonce, ciphertext, nil)
}
