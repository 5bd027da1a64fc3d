package repository

import (
	"time"

	"edumsg_server/internal/model"

	"gorm.io/gorm"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话 Repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindByUuid 按 UUID 查找会话
func (r *conversationRepository) FindByUuid(uuid string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("uuid = ?", uuid).First(&conversation).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 uuid=%s", uuid)
	}
	return &conversation, nil
}

// FindByPair 按规范化参与者对查找会话
func (r *conversationRepository) FindByPair(lowId, highId string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("participant_low_id = ? AND participant_high_id = ?", lowId, highId).
		First(&conversation).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 pair=%s/%s", lowId, highId)
	}
	return &conversation, nil
}

// FindByParticipant 查找用户参与的所有会话
// 按最近消息时间倒序，没有消息的会话按创建时间排在后面
func (r *conversationRepository) FindByParticipant(userId string) ([]model.Conversation, error) {
	var conversations []model.Conversation
	if err := r.db.Where("participant_low_id = ? OR participant_high_id = ?", userId, userId).
		Order("last_message_at DESC, created_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户会话列表 user_id=%s", userId)
	}
	return conversations, nil
}

// Create 创建会话
// 依赖 idx_participant_pair 复合唯一索引：并发重复创建时数据库兜底，
// TranslateError 将唯一键冲突翻译为 ErrDuplicatedKey，此处包装为 CodeConflict
func (r *conversationRepository) Create(conversation *model.Conversation) error {
	if err := r.db.Create(conversation).Error; err != nil {
		return wrapDBError(err, "创建会话")
	}
	return nil
}

// UpdateLastMessage 更新会话的最近消息预览和时间
func (r *conversationRepository) UpdateLastMessage(uuid string, preview string, at time.Time) error {
	if err := r.db.Model(&model.Conversation{}).Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"last_message":    preview,
			"last_message_at": at,
		}).Error; err != nil {
		return wrapDBErrorf(err, "更新会话最近消息 uuid=%s", uuid)
	}
	return nil
}

// UpdateFlags 更新会话的归档/静音标记
func (r *conversationRepository) UpdateFlags(uuid string, updates map[string]interface{}) error {
	if err := r.db.Model(&model.Conversation{}).Where("uuid = ?", uuid).
		Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新会话标记 uuid=%s", uuid)
	}
	return nil
}
