// Package handler 提供 HTTP 请求处理器
// 本文件处理对话相关的 API 请求
package handler

import (
	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/service/messaging"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 对话请求处理器
type ConversationHandler struct {
	svc *messaging.Service
}

// NewConversationHandler 创建对话 Handler
func NewConversationHandler(svc *messaging.Service) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// Create 创建对话
// POST /conversation/create
// 请求体: request.CreateConversationRequest
func (h *ConversationHandler) Create(c *gin.Context) {
	var req request.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.CreateConversation(c.Request.Context(), callerId(c), callerRole(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// List 对话列表
// GET /conversation/list?archived=&muted=&hasUnread=
func (h *ConversationHandler) List(c *gin.Context) {
	var req request.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.ListConversations(c.Request.Context(), callerId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// SetFlags 设置归档/免打扰
// POST /conversation/flags
// 请求体: request.ConversationFlagRequest
func (h *ConversationHandler) SetFlags(c *gin.Context) {
	var req request.ConversationFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.svc.SetConversationFlags(c.Request.Context(), callerId(c), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// MarkRead 标记整个对话为已读
// POST /conversation/read
// 请求体: request.ConversationIdRequest
// 响应: { count: 本次被标记的消息数 }
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	var req request.ConversationIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	count, err := h.svc.MarkConversationAsRead(c.Request.Context(), callerId(c), req.ConversationId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"count": count})
}
