// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
// 遵循依赖倒置原则，通过构造函数注入 Service 依赖
package handler

import (
	"edumsg_server/internal/service/chat"
	"edumsg_server/internal/service/messaging"
	"edumsg_server/internal/service/user"
)

// Handlers 聚合所有 Handler 实例
// 作为依赖注入的入口，Router 层通过此结构访问各个 Handler
type Handlers struct {
	Auth         *AuthHandler
	Conversation *ConversationHandler
	Message      *MessageHandler
	Attachment   *AttachmentHandler
	Ws           *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(userSvc *user.Service, msgSvc *messaging.Service, broker chat.EventBroker) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(userSvc),
		Conversation: NewConversationHandler(msgSvc),
		Message:      NewMessageHandler(msgSvc),
		Attachment:   NewAttachmentHandler(msgSvc),
		Ws:           NewWsHandler(broker),
	}
}
