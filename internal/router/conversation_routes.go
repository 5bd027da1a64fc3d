// Package router 提供 HTTP 路由注册
// 本文件定义对话相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterConversationRoutes 注册对话相关路由（需要认证）
func (rt *Router) RegisterConversationRoutes(rg *gin.RouterGroup) {
	conversationGroup := rg.Group("/conversation")
	{
		conversationGroup.POST("/create", rt.handlers.Conversation.Create)  // 创建对话
		conversationGroup.GET("/list", rt.handlers.Conversation.List)       // 对话列表（支持过滤）
		conversationGroup.POST("/flags", rt.handlers.Conversation.SetFlags) // 归档/免打扰设置
		conversationGroup.POST("/read", rt.handlers.Conversation.MarkRead)  // 整个对话标记已读
	}
}
