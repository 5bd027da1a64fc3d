// Package handler 提供 HTTP 请求处理器
// 本文件处理账号相关的 API 请求
package handler

import (
	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/service/user"

	"github.com/gin-gonic/gin"
)

// AuthHandler 账号请求处理器
type AuthHandler struct {
	svc *user.Service
}

// NewAuthHandler 创建账号 Handler
func NewAuthHandler(svc *user.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 注册
// POST /auth/register
// 请求体: request.RegisterRequest
func (h *AuthHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Login 登录
// POST /auth/login
// 请求体: request.LoginRequest
// 响应: respond.LoginRespond（含访问令牌与会话 ID）
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.Login(c.Request.Context(), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Logout 登出
// POST /auth/logout（需认证）
// 请求体: request.LogoutRequest
func (h *AuthHandler) Logout(c *gin.Context) {
	var req request.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), callerId(c), req.SessionId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
