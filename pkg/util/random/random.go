package random

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"
)

// GetRandomHex 生成 n 个随机字节并返回 hex 编码（长度 2n）
// 用于登录会话 ID，必须使用 crypto/rand 防止可预测
func GetRandomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败意味着系统熵源不可用，无法安全降级
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// GetNowAndLenRandomString 生成带时间戳前缀的随机字符串（用于存储路径等非安全场景）
// 格式: YYMMDD + 字母数字混合
// 示例: 241230AbCdE1234567
func GetNowAndLenRandomString(length int) string {
	result := make([]byte, length)
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	charsetLen := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			result[i] = 'x'
			continue
		}
		result[i] = charset[n.Int64()]
	}
	return time.Now().Format("060102") + string(result)
}
