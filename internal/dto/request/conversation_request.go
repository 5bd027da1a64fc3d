package request

// CreateConversationRequest 创建对话请求
type CreateConversationRequest struct {
	OtherParticipantId string `json:"otherParticipantId" binding:"required"` // 对方用户 uuid
	Title              string `json:"title" binding:"max=100"`               // 可选标题
}

// ConversationFlagRequest 归档/免打扰设置请求
// 两个指针字段允许只改其中一项
type ConversationFlagRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
	Archived       *bool  `json:"archived"`
	Muted          *bool  `json:"muted"`
}

// ListConversationsRequest 对话列表过滤条件（query 参数）
type ListConversationsRequest struct {
	Archived  *bool `form:"archived"`  // 只看归档/未归档
	Muted     *bool `form:"muted"`     // 只看免打扰/非免打扰
	HasUnread *bool `form:"hasUnread"` // 只看有未读的
}
