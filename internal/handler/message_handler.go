// Package handler 提供 HTTP 请求处理器
// 本文件处理消息相关的 API 请求
package handler

import (
	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/service/messaging"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息请求处理器
type MessageHandler struct {
	svc *messaging.Service
}

// NewMessageHandler 创建消息 Handler
func NewMessageHandler(svc *messaging.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// Send 发送消息
// POST /message/send
// 请求体: request.SendMessageRequest
func (h *MessageHandler) Send(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.SendMessage(c.Request.Context(), callerId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Edit 编辑消息
// POST /message/edit
// 请求体: request.EditMessageRequest
func (h *MessageHandler) Edit(c *gin.Context) {
	var req request.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.EditMessage(c.Request.Context(), callerId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Delete 删除消息（软删除）
// POST /message/delete
// 请求体: request.MessageIdRequest
func (h *MessageHandler) Delete(c *gin.Context) {
	var req request.MessageIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.svc.DeleteMessage(c.Request.Context(), callerId(c), req.MessageId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Get 按 ID 查询单条消息
// GET /message/get?messageId=
func (h *MessageHandler) Get(c *gin.Context) {
	var req request.GetMessageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.GetMessageById(c.Request.Context(), callerId(c), req.MessageId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// List 对话消息分页
// GET /message/list?conversationId=&limit=&offset=
func (h *MessageHandler) List(c *gin.Context) {
	var req request.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.GetConversationMessages(c.Request.Context(), callerId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// MarkRead 标记单条消息已读
// POST /message/read
// 请求体: request.MessageIdRequest
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req request.MessageIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.svc.MarkMessageAsRead(c.Request.Context(), callerId(c), req.MessageId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// UnreadCount 未读总数
// GET /message/unread
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	total, err := h.svc.GetTotalUnreadCount(c.Request.Context(), callerId(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"total": total})
}

// Search 跨对话搜索消息
// GET /message/search?query=&limit=
func (h *MessageHandler) Search(c *gin.Context) {
	var req request.SearchMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.SearchMessages(c.Request.Context(), callerId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
