// Package model 定义数据库实体模型
// 本文件定义会话（对话）模型，管理师生之间的一对一对话
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Conversation 对话模型
// 对应数据库 conversation 表
// 一条记录代表一对参与者（学生+教师，或管理员参与）之间唯一的活跃对话
type Conversation struct {
	gorm.Model // 内嵌 GORM 模型，包含 ID、CreatedAt、UpdatedAt、DeletedAt

	// Uuid 对话唯一标识
	// 格式：C + 13位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:对话uuid"`

	// ParticipantLowId / ParticipantHighId 参与者对
	// 创建时按字典序归一化（low < high），配合复合唯一索引保证
	// 同一对参与者最多只存在一条活跃对话；并发重复创建由数据库约束兜底
	ParticipantLowId  string `gorm:"column:participant_low_id;type:char(20);not null;uniqueIndex:idx_participant_pair;comment:参与者对中较小的uuid"`
	ParticipantHighId string `gorm:"column:participant_high_id;type:char(20);not null;uniqueIndex:idx_participant_pair;comment:参与者对中较大的uuid"`

	// ParticipantLowRole / ParticipantHighRole 角色快照
	// 授权判断只依赖创建时的角色快照，资料主数据归外部资料服务所有
	ParticipantLowRole  string `gorm:"column:participant_low_role;type:char(12);not null;comment:较小方角色快照"`
	ParticipantHighRole string `gorm:"column:participant_high_role;type:char(12);not null;comment:较大方角色快照"`

	// Title 对话标题（可选）
	Title string `gorm:"column:title;type:varchar(100);comment:对话标题"`

	// 归档/免打扰均为参与者各自的标志，不是全局状态
	LowArchived  bool `gorm:"column:low_archived;not null;default:0;comment:较小方是否归档"`
	HighArchived bool `gorm:"column:high_archived;not null;default:0;comment:较大方是否归档"`
	LowMuted     bool `gorm:"column:low_muted;not null;default:0;comment:较小方是否免打扰"`
	HighMuted    bool `gorm:"column:high_muted;not null;default:0;comment:较大方是否免打扰"`

	// LastMessage 最新消息摘要
	// 冗余存储，用于对话列表展示
	LastMessage string `gorm:"column:last_message;type:TEXT;comment:最新的消息"`

	// LastMessageAt 最后消息时间
	// 用于对话列表排序（最近聊天的排在前面）
	LastMessageAt sql.NullTime `gorm:"column:last_message_at;type:datetime;comment:最近消息时间"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}

// HasParticipant 判断用户是否为该对话的参与者
func (c *Conversation) HasParticipant(userId string) bool {
	return c.ParticipantLowId == userId || c.ParticipantHighId == userId
}

// OtherParticipant 返回对话中另一方的 uuid
// userId 不是参与者时返回空字符串
func (c *Conversation) OtherParticipant(userId string) string {
	switch userId {
	case c.ParticipantLowId:
		return c.ParticipantHighId
	case c.ParticipantHighId:
		return c.ParticipantLowId
	}
	return ""
}

// ArchivedFor / MutedFor 读取某一参与者自己的标志位
func (c *Conversation) ArchivedFor(userId string) bool {
	if userId == c.ParticipantLowId {
		return c.LowArchived
	}
	return c.HighArchived
}

func (c *Conversation) MutedFor(userId string) bool {
	if userId == c.ParticipantLowId {
		return c.LowMuted
	}
	return c.HighMuted
}

// NormalizePair 将参与者对按字典序归一化
// 返回 (low, high)，保证无序对的存储形式唯一
func NormalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
