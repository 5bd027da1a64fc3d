// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"

	"edumsg_server/internal/handler"
	"edumsg_server/internal/infrastructure/middleware"
	"edumsg_server/internal/service/security"
)

// Router 路由管理器
// 持有 Handler 聚合与安全服务，统一挂载认证中间件
type Router struct {
	handlers *handler.Handlers
	sec      *security.Service
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers, sec *security.Service) *Router {
	return &Router{handlers: handlers, sec: sec}
}

// RegisterRoutes 注册所有路由
// 公开组只有注册、登录和签名下载；其余全部经过 JWT 认证中间件
func (rt *Router) RegisterRoutes(engine *gin.Engine) {
	public := engine.Group("")
	rt.RegisterPublicRoutes(public)

	authed := engine.Group("", middleware.JWTAuth(rt.sec))
	rt.RegisterAuthRoutes(authed)
	rt.RegisterConversationRoutes(authed)
	rt.RegisterMessageRoutes(authed)
	rt.RegisterAttachmentRoutes(authed)
	rt.RegisterWebSocketRoutes(authed)
}

// RegisterPublicRoutes 注册无需认证的路由
// 下载接口的授权由签名令牌自身完成
func (rt *Router) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", rt.handlers.Auth.Register)
	rg.POST("/auth/login", rt.handlers.Auth.Login)
	rg.GET("/attachment/download", rt.handlers.Attachment.Download)
}
