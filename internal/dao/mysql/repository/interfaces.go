// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"errors"
	"time"

	"edumsg_server/internal/model"
	"edumsg_server/pkg/errorx"

	"gorm.io/gorm"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - ErrDuplicatedKey  -> CodeConflict
//   - 其他错误 -> CodeDBError
//
// err: 原始错误
// msg: 错误描述
// 返回: 包装后的错误
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errorx.Wrap(err, errorx.CodeConflict, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
// 功能同 wrapDBError，但支持 fmt.Sprintf 风格的格式化
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errorx.Wrapf(err, errorx.CodeConflict, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}

// ==================== Repository 接口定义 ====================

// ProfileRepository 用户资料数据访问接口
// 提供用户资料快照的增删改查操作
type ProfileRepository interface {
	// FindByUuid 根据 UUID 查找用户
	FindByUuid(uuid string) (*model.UserProfile, error)
	// FindByEmail 根据邮箱查找用户
	FindByEmail(email string) (*model.UserProfile, error)
	// FindByUuids 批量根据 UUID 查找用户
	FindByUuids(uuids []string) ([]model.UserProfile, error)
	// Create 创建新用户资料
	Create(profile *model.UserProfile) error
	// Update 更新用户资料
	Update(profile *model.UserProfile) error
}

// ConversationRepository 会话数据访问接口
// 管理两名参与者之间的一对一会话
type ConversationRepository interface {
	// FindByUuid 根据 UUID 查找会话
	FindByUuid(uuid string) (*model.Conversation, error)
	// FindByPair 根据规范化参与者对查找会话
	FindByPair(lowId, highId string) (*model.Conversation, error)
	// FindByParticipant 查找用户参与的所有会话（按最近消息时间倒序）
	FindByParticipant(userId string) ([]model.Conversation, error)
	// Create 创建新会话
	// 参与者对的唯一索引冲突返回 CodeConflict
	Create(conversation *model.Conversation) error
	// UpdateLastMessage 更新会话的最近消息预览和时间
	UpdateLastMessage(uuid string, preview string, at time.Time) error
	// UpdateFlags 更新会话的归档/静音标记
	UpdateFlags(uuid string, updates map[string]interface{}) error
}

// MessageRepository 消息数据访问接口
// 管理消息的存取；删除是业务标记，行永不物理移除
type MessageRepository interface {
	// FindByUuid 根据 UUID 查找未删除的消息
	FindByUuid(uuid int64) (*model.Message, error)
	// FindByUuidAny 根据 UUID 查找消息（含已删除，供审计）
	FindByUuidAny(uuid int64) (*model.Message, error)
	// FindByConversation 分页查找会话内未删除的消息
	// 按 uuid 升序（时间顺序）做确定性分页，limit/offset 语义
	FindByConversation(conversationId string, limit, offset int) ([]model.Message, error)
	// Create 创建新消息
	Create(message *model.Message) error
	// Update 保存消息的全部字段变更
	Update(message *model.Message) error
	// MarkRead 标记单条消息已读
	MarkRead(uuid int64, at time.Time) error
	// MarkConversationRead 标记会话内对方发来的所有未读消息为已读
	// 返回受影响的行数
	MarkConversationRead(conversationId, readerId string, at time.Time) (int64, error)
	// MarkDeleted 标记消息已删除（保留行以供审计）
	MarkDeleted(uuid int64) error
	// CountUnread 统计会话内某用户的未读消息数
	CountUnread(conversationId, userId string) (int64, error)
	// CountUnreadForUser 统计用户在多个会话中的未读消息总数
	CountUnreadForUser(userId string, conversationIds []string) (int64, error)
	// Search 在指定会话范围内模糊搜索消息内容
	Search(conversationIds []string, keyword string, limit int) ([]model.Message, error)
}

// AttachmentRepository 附件数据访问接口
// 管理消息附件的元数据
type AttachmentRepository interface {
	// FindByUuid 根据 UUID 查找附件
	FindByUuid(uuid string) (*model.Attachment, error)
	// FindByMessageId 查找消息的所有附件
	FindByMessageId(messageId int64) ([]model.Attachment, error)
	// FindByStoragePath 按存储路径查找附件
	FindByStoragePath(storagePath string) (*model.Attachment, error)
	// Create 创建附件记录
	Create(attachment *model.Attachment) error
	// MarkUploaded 标记附件上传完成并回填存储信息
	MarkUploaded(uuid string, size int64, storagePath string) error
	// IncrementDownloadCount 下载计数 +1
	IncrementDownloadCount(uuid string) error
}

// SessionRepository 登录会话数据访问接口
// 管理设备绑定的登录会话
type SessionRepository interface {
	// FindByUuid 根据会话 ID 查找会话
	FindByUuid(uuid string) (*model.LoginSession, error)
	// FindActiveByUser 查找用户的所有活跃会话
	FindActiveByUser(userId string) ([]model.LoginSession, error)
	// Create 创建新会话
	Create(session *model.LoginSession) error
	// Deactivate 注销单个会话
	Deactivate(uuid string) error
	// DeactivateByUser 注销用户的所有会话
	DeactivateByUser(userId string) error
	// DeleteExpired 物理清理指定时间之前过期的会话，返回清理行数
	DeleteExpired(before time.Time) (int64, error)
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db           *gorm.DB               // GORM 数据库实例
	Profile      ProfileRepository      // 用户资料 Repository
	Conversation ConversationRepository // 会话 Repository
	Message      MessageRepository      // 消息 Repository
	Attachment   AttachmentRepository   // 附件 Repository
	Session      SessionRepository      // 登录会话 Repository
}

// NewRepositories 创建所有 Repository 实例
// 接收 GORM 数据库实例，初始化并返回 Repositories 聚合
// db: GORM 数据库实例
// 返回: Repositories 聚合指针
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Profile:      NewProfileRepository(db),
		Conversation: NewConversationRepository(db),
		Message:      NewMessageRepository(db),
		Attachment:   NewAttachmentRepository(db),
		Session:      NewSessionRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
// fn: 事务执行函数，接收事务内的 Repositories 实例
// 返回: 操作错误（如有错误会自动回滚）
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 使用事务 db 创建新的 Repositories 实例
		return fn(NewRepositories(tx))
	})
}
