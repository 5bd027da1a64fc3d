// Package model 定义数据库实体模型
// 本文件定义附件元数据模型，二进制内容由外部对象存储保管
package model

import (
	"gorm.io/gorm"
)

// Attachment 附件元数据模型
// 对应数据库 attachment 表
// 附件从属于消息：消息被硬清理时附件一并删除，普通软删除不影响附件行，
// 但下载授权会重新校验所属消息的可见性
type Attachment struct {
	gorm.Model

	// Uuid 附件唯一标识
	// 格式：A + 13位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:附件uuid"`

	// MessageId 所属消息的雪花 ID
	MessageId int64 `gorm:"column:message_id;index;type:bigint;not null;comment:所属消息雪花ID"`

	// ConversationId 所属对话 UUID
	// 冗余存储，下载授权时免去一次消息表查询
	ConversationId string `gorm:"column:conversation_id;index;type:char(20);not null;comment:所属对话uuid"`

	// OriginalFilename 上传时的原始文件名（已净化）
	OriginalFilename string `gorm:"column:original_filename;type:varchar(255);not null;comment:原始文件名"`

	// MimeType 文件 MIME 类型，如 "application/pdf"
	MimeType string `gorm:"column:mime_type;type:char(100);not null;comment:MIME类型"`

	// FileSize 文件大小（字节），上限由配置控制（默认 100MB）
	FileSize int64 `gorm:"column:file_size;not null;comment:文件大小字节"`

	// StoragePath 对象存储中的不透明句柄
	// 消息服务不在自己的记录中内联任何二进制内容
	StoragePath string `gorm:"column:storage_path;type:varchar(255);not null;comment:对象存储路径"`

	// IsUploaded 二进制是否已成功写入对象存储
	IsUploaded bool `gorm:"column:is_uploaded;not null;default:0;comment:是否已上传"`

	// DownloadCount 下载次数统计
	DownloadCount int64 `gorm:"column:download_count;not null;default:0;comment:下载次数"`
}

// TableName 指定表名
func (Attachment) TableName() string {
	return "attachment"
}
