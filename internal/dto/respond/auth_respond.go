// Package respond 定义 HTTP 接口的响应体结构
package respond

// RegisterRespond 注册响应
type RegisterRespond struct {
	UserId   string `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginRespond 登录响应
type LoginRespond struct {
	UserId    string `json:"userId"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	Token     string `json:"token"`     // 访问令牌
	SessionId string `json:"sessionId"` // 登录会话 ID
	ExpiresAt string `json:"expiresAt"` // 会话过期时间
}
