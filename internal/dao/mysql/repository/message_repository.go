package repository

import (
	"strings"
	"time"

	"edumsg_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// FindByUuid 按 UUID 查找未删除的消息
func (r *messageRepository) FindByUuid(uuid int64) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("uuid = ? AND is_deleted = ?", uuid, false).First(&message).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 uuid=%d", uuid)
	}
	return &message, nil
}

// FindByUuidAny 按 UUID 查找消息，不排除已删除的行
// 审计路径使用：软删除的消息仍需按 ID 可查
func (r *messageRepository) FindByUuidAny(uuid int64) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("uuid = ?", uuid).First(&message).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息(含已删除) uuid=%d", uuid)
	}
	return &message, nil
}

// FindByConversation 分页查找会话内未删除的消息
// 雪花 ID 单调递增，按 uuid 升序即时间顺序；排序键唯一，
// 无并发写入时相邻页拼接不重复、不漏行
func (r *messageRepository) FindByConversation(conversationId string, limit, offset int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("conversation_id = ? AND is_deleted = ?", conversationId, false).
		Order("uuid ASC").Limit(limit).Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话消息 conversation_id=%s", conversationId)
	}
	return messages, nil
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// Update 保存消息的全部字段变更
func (r *messageRepository) Update(message *model.Message) error {
	if err := r.db.Save(message).Error; err != nil {
		return wrapDBErrorf(err, "更新消息 uuid=%d", message.Uuid)
	}
	return nil
}

// MarkRead 标记单条消息已读
func (r *messageRepository) MarkRead(uuid int64, at time.Time) error {
	if err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		}).Error; err != nil {
		return wrapDBErrorf(err, "标记消息已读 uuid=%d", uuid)
	}
	return nil
}

// MarkConversationRead 标记会话内对方发来的所有未读消息为已读
// 只影响别人发给 readerId 的消息，自己发出的不动
func (r *messageRepository) MarkConversationRead(conversationId, readerId string, at time.Time) (int64, error) {
	result := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ? AND is_deleted = ?",
			conversationId, readerId, false, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	if result.Error != nil {
		return 0, wrapDBErrorf(result.Error, "标记会话已读 conversation_id=%s", conversationId)
	}
	return result.RowsAffected, nil
}

// MarkDeleted 标记消息已删除
// 业务层面的删除标记，行保留在表中供审计按 ID 直查
func (r *messageRepository) MarkDeleted(uuid int64) error {
	if err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).
		Update("is_deleted", true).Error; err != nil {
		return wrapDBErrorf(err, "标记消息删除 uuid=%d", uuid)
	}
	return nil
}

// CountUnread 统计会话内某用户的未读消息数
func (r *messageRepository) CountUnread(conversationId, userId string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ? AND is_deleted = ?",
			conversationId, userId, false, false).
		Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计未读消息 conversation_id=%s", conversationId)
	}
	return count, nil
}

// CountUnreadForUser 统计用户在多个会话中的未读消息总数
func (r *messageRepository) CountUnreadForUser(userId string, conversationIds []string) (int64, error) {
	if len(conversationIds) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ? AND is_deleted = ?",
			conversationIds, userId, false, false).
		Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计用户未读总数 user_id=%s", userId)
	}
	return count, nil
}

// escapeLike 转义 LIKE 模式中的元字符
// 用户输入的搜索词按字面匹配，% _ \ 不作为通配符
func escapeLike(keyword string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(keyword)
}

// Search 在指定会话范围内模糊搜索消息内容
// conversationIds 必须是调用方已通过授权校验的会话集合，
// 搜索结果天然不会越过调用方的可见范围
func (r *messageRepository) Search(conversationIds []string, keyword string, limit int) ([]model.Message, error) {
	if len(conversationIds) == 0 {
		return []model.Message{}, nil
	}
	var messages []model.Message
	pattern := "%" + escapeLike(keyword) + "%"
	if err := r.db.Where("conversation_id IN ? AND is_deleted = ? AND content LIKE ?",
		conversationIds, false, pattern).
		Order("uuid DESC").Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "搜索消息 keyword=%s", keyword)
	}
	return messages, nil
}
