// Package request 定义 HTTP 接口的请求体结构
package request

// RegisterRequest 注册请求
type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required,max=50"` // 姓名
	Email    string `json:"email" binding:"required"`           // 邮箱（登录标识）
	Password string `json:"password" binding:"required,min=8"`  // 密码明文，仅传输用
	Role     string `json:"role" binding:"required"`            // student / instructor / admin
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // 邮箱
	Password string `json:"password" binding:"required"` // 密码
}

// LogoutRequest 登出请求
type LogoutRequest struct {
	SessionId string `json:"sessionId" binding:"required"` // 要注销的登录会话
}
