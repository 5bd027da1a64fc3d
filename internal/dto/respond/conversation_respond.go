package respond

// ConversationRespond 对话列表项
type ConversationRespond struct {
	ConversationId     string `json:"conversationId"`
	OtherParticipantId string `json:"otherParticipantId"` // 对方用户 uuid
	OtherFullName      string `json:"otherFullName"`      // 对方姓名快照
	OtherRole          string `json:"otherRole"`          // 对方角色快照
	Title              string `json:"title"`
	Archived           bool   `json:"archived"` // 当前用户自己的归档标志
	Muted              bool   `json:"muted"`    // 当前用户自己的免打扰标志
	LastMessage        string `json:"lastMessage"`
	LastMessageAt      string `json:"lastMessageAt"`
	UnreadCount        int64  `json:"unreadCount"`
	CreatedAt          string `json:"createdAt"`
}
