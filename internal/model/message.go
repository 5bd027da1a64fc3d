// Package model 定义数据库实体模型
// 本文件定义消息模型，支持编辑快照、软删除、已读回执与嵌套回复
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// 消息类型
const (
	MessageTypeText   int8 = 0 // 文本消息
	MessageTypeFile   int8 = 1 // 文件消息（关联附件）
	MessageTypeSystem int8 = 2 // 系统消息
)

// Message 消息模型
// 对应数据库 message 表
type Message struct {
	gorm.Model

	// Uuid 消息唯一标识
	// 使用雪花算法生成的 int64 类型 ID，同节点内单调递增，
	// 可直接作为消息列表分页的确定性排序键
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ConversationId 所属对话 UUID
	ConversationId string `gorm:"column:conversation_id;index;type:char(20);not null;comment:对话uuid"`

	// SenderId 发送者 UUID
	SenderId string `gorm:"column:sender_id;index;type:char(20);not null;comment:发送者uuid"`

	// Type 消息类型
	// 0=文本, 1=文件, 2=系统
	Type int8 `gorm:"column:type;not null;comment:消息类型，0.文本，1.文件，2.系统"`

	// Content 消息文本内容（已净化），长度 1..10000
	Content string `gorm:"column:content;type:TEXT;not null;comment:消息内容"`

	// ParentMessageId 父消息雪花 ID，0 表示非回复消息
	ParentMessageId int64 `gorm:"column:parent_message_id;index;type:bigint;not null;default:0;comment:父消息雪花ID"`

	// ThreadDepth 嵌套回复深度，根消息为 0，等于父消息深度 + 1，超过上限拒绝
	ThreadDepth int `gorm:"column:thread_depth;not null;default:0;comment:回复嵌套深度"`

	// 编辑状态：首次编辑时把原文快照进 OriginalContent，之后不再覆盖
	IsEdited        bool         `gorm:"column:is_edited;not null;default:0;comment:是否已编辑"`
	OriginalContent string       `gorm:"column:original_content;type:TEXT;comment:首次编辑前的原文快照"`
	EditedAt        sql.NullTime `gorm:"column:edited_at;type:datetime;comment:最后编辑时间"`

	// 已读状态（一对一对话，接收方唯一，单个标志即可）
	IsRead bool         `gorm:"column:is_read;not null;default:0;index;comment:接收方是否已读"`
	ReadAt sql.NullTime `gorm:"column:read_at;type:datetime;comment:已读时间"`

	// IsDeleted 软删除标志
	// 软删除的消息从常规检索中排除，但保留在表中供审计按 ID 直查；
	// 不使用 gorm 的 DeletedAt，因为审计路径需要能查到这些行
	IsDeleted bool `gorm:"column:is_deleted;not null;default:0;index;comment:是否软删除"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}
