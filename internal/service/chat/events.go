// Package chat 实现消息核心的实时分发层
// events.go
// 核心职责：定义实时事件的线格式
// 新消息、消息编辑/删除、已读回执、输入提示统一走同一个事件信封
package chat

import (
	"encoding/json"
)

// 事件类型
const (
	EventNewMessage     = "message.new"     // 新消息
	EventMessageEdited  = "message.edited"  // 消息被编辑
	EventMessageDeleted = "message.deleted" // 消息被删除
	EventReadReceipt    = "receipt.read"    // 已读回执
	EventTyping         = "typing"          // 对方正在输入
	EventTypingStopped  = "typing.stopped"  // 输入提示过期
)

// Event 实时事件信封
// 投递语义是 at-least-once：客户端按 MessageId（或事件类型+会话）去重；
// 推送通道不保证顺序，客户端以拉取接口做状态对账
type Event struct {
	// Type 事件类型，见上方常量
	Type string `json:"type"`
	// ConversationId 事件所属会话
	ConversationId string `json:"conversationId"`
	// SenderId 触发事件的用户
	SenderId string `json:"senderId"`
	// MessageId 关联的消息雪花 ID（消息类事件携带，客户端据此去重）
	MessageId int64 `json:"messageId,omitempty"`
	// Payload 事件携带的响应体（序列化后的 DTO）
	Payload json.RawMessage `json:"payload,omitempty"`
	// Targets 投递目标用户列表
	// 生产方已知会话参与者时直接填好；为空时由分发层查库解析
	Targets []string `json:"targets,omitempty"`
}

// Encode 序列化事件
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent 反序列化事件
func DecodeEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
