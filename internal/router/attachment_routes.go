// Package router 提供 HTTP 路由注册
// 本文件定义附件相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAttachmentRoutes 注册附件相关路由（需要认证）
// 下载接口在公开组，由签名令牌完成授权
func (rt *Router) RegisterAttachmentRoutes(rg *gin.RouterGroup) {
	attachmentGroup := rg.Group("/attachment")
	{
		attachmentGroup.POST("/upload", rt.handlers.Attachment.Upload) // 上传附件（multipart）
		attachmentGroup.GET("/url", rt.handlers.Attachment.GetURL)     // 获取限时下载链接
	}
}
