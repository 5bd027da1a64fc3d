// Package router 提供 HTTP 路由注册
// 本文件定义账号相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册账号相关路由（需要认证）
// 注册与登录在公开组，这里只挂登出
func (rt *Router) RegisterAuthRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/logout", rt.handlers.Auth.Logout) // 注销登录会话并吊销令牌
	}
}
