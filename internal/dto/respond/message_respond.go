package respond

// MessageRespond 消息响应体
// 雪花 ID 以字符串下发，避免前端 JS 的 53 位整数精度问题
type MessageRespond struct {
	MessageId       int64  `json:"messageId,string"`
	ConversationId  string `json:"conversationId"`
	SenderId        string `json:"senderId"`
	Type            int8   `json:"type"`
	Content         string `json:"content"`
	ParentMessageId int64  `json:"parentMessageId,string,omitempty"`
	ThreadDepth     int    `json:"threadDepth"`
	IsEdited        bool   `json:"isEdited"`
	EditedAt        string `json:"editedAt,omitempty"`
	IsRead          bool   `json:"isRead"`
	ReadAt          string `json:"readAt,omitempty"`
	CreatedAt       string `json:"createdAt"`

	// Attachments 附件元数据，按 ID 直查消息时带出
	Attachments []AttachmentRespond `json:"attachments,omitempty"`
}

// ReadReceiptRespond 已读回执响应
type ReadReceiptRespond struct {
	ConversationId string `json:"conversationId"`
	ReaderId       string `json:"readerId"`
	Count          int64  `json:"count"` // 本次转为已读的消息数
}

// UnreadCountRespond 未读总数响应
type UnreadCountRespond struct {
	Total int64 `json:"total"`
}
