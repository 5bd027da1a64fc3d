// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由（需要认证）
// 连接升级前先过 JWT 中间件，身份不由客户端自报
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	wsGroup := rg.Group("/ws")
	{
		wsGroup.GET("/connect", rt.handlers.Ws.Connect)        // 升级为 WebSocket 连接
		wsGroup.POST("/disconnect", rt.handlers.Ws.Disconnect) // 主动断开实时连接
	}
}
