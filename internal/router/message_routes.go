// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/message")
	{
		messageGroup.POST("/send", rt.handlers.Message.Send)         // 发送消息
		messageGroup.POST("/edit", rt.handlers.Message.Edit)         // 编辑消息
		messageGroup.POST("/delete", rt.handlers.Message.Delete)     // 删除消息（软删除）
		messageGroup.GET("/get", rt.handlers.Message.Get)            // 按 ID 查询单条消息
		messageGroup.GET("/list", rt.handlers.Message.List)          // 对话消息分页
		messageGroup.POST("/read", rt.handlers.Message.MarkRead)     // 单条消息标记已读
		messageGroup.GET("/unread", rt.handlers.Message.UnreadCount) // 未读总数
		messageGroup.GET("/search", rt.handlers.Message.Search)      // 跨对话搜索
	}
}
