package request

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	ConversationId  string `json:"conversationId" binding:"required"` // 目标对话
	Content         string `json:"content" binding:"required"`        // 消息内容
	Type            int8   `json:"type"`                              // 消息类型，0 文本
	ParentMessageId int64  `json:"parentMessageId,string,omitempty"`  // 回复的父消息雪花 ID，0 表示非回复
}

// EditMessageRequest 编辑消息请求
type EditMessageRequest struct {
	MessageId  int64  `json:"messageId,string" binding:"required"` // 雪花 ID
	NewContent string `json:"newContent" binding:"required"`       // 新内容
}

// MessageIdRequest 按消息 ID 操作的请求体（删除、标记已读等）
type MessageIdRequest struct {
	MessageId int64 `json:"messageId,string" binding:"required"` // 雪花 ID
}

// ConversationIdRequest 按对话 ID 操作的请求体
type ConversationIdRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
}

// GetMessageRequest 按 ID 查询消息（query 参数）
type GetMessageRequest struct {
	MessageId int64 `form:"messageId" binding:"required"` // 雪花 ID
}

// MessageListRequest 消息分页请求（query 参数）
type MessageListRequest struct {
	ConversationId string `form:"conversationId" binding:"required"`
	Limit          int    `form:"limit"`  // 每页条数，默认 50，上限 100
	Offset         int    `form:"offset"` // 偏移量
}

// SearchMessagesRequest 消息搜索请求（query 参数）
type SearchMessagesRequest struct {
	Query string `form:"query" binding:"required"` // 搜索词
	Limit int    `form:"limit"`                    // 返回条数上限
}
