package middleware

import (
	"net/http"
	"strings"

	"edumsg_server/internal/service/security"
	"edumsg_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// JWTAuth JWT 认证中间件
// 验证令牌与设备绑定，并将用户身份存入上下文
// 设备指纹由服务端根据当前请求的 UA 与来源 IP 重新计算，
// 与签发时嵌入令牌的指纹比对，令牌被挪到别的设备上会被拒绝
func JWTAuth(sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 获取 Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "请先登录",
			})
			return
		}

		// 2. 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "Token 格式错误，请使用 Bearer Token",
			})
			return
		}

		// 3. 验证 Token（含签名、有效期、吊销集合、设备绑定）
		// 失败原因不细分返回，统一提示重新登录
		fingerprint := security.Fingerprint(c.Request.UserAgent(), c.ClientIP())
		claims, err := sec.VerifyToken(c.Request.Context(), parts[1], fingerprint)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "Token 已过期或无效，请重新登录",
			})
			return
		}

		// 4. 将用户身份存入上下文，供后续 Handler 使用
		c.Set("user_id", claims.UserId)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}
