// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"edumsg_server/internal/service/chat"

	"github.com/gin-gonic/gin"
)

// WsHandler WebSocket 请求处理器
type WsHandler struct {
	broker chat.EventBroker
}

// NewWsHandler 创建 WebSocket Handler
func NewWsHandler(broker chat.EventBroker) *WsHandler {
	return &WsHandler{broker: broker}
}

// Connect 升级 HTTP 连接为 WebSocket
// GET /ws/connect（需认证）
// 身份取自认证中间件写入的 user_id，不接受客户端自报身份
func (h *WsHandler) Connect(c *gin.Context) {
	chat.NewClientInit(c, callerId(c), h.broker)
}

// Disconnect 主动断开实时连接
// POST /ws/disconnect（需认证）
func (h *WsHandler) Disconnect(c *gin.Context) {
	if err := chat.ClientLogout(callerId(c), h.broker); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
