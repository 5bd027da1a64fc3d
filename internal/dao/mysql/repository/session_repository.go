package repository

import (
	"time"

	"edumsg_server/internal/model"

	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建登录会话 Repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// FindByUuid 按会话 ID 查找会话
func (r *sessionRepository) FindByUuid(uuid string) (*model.LoginSession, error) {
	var session model.LoginSession
	if err := r.db.Where("uuid = ?", uuid).First(&session).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询登录会话 uuid=%s", uuid)
	}
	return &session, nil
}

// FindActiveByUser 查找用户的所有活跃会话
func (r *sessionRepository) FindActiveByUser(userId string) ([]model.LoginSession, error) {
	var sessions []model.LoginSession
	if err := r.db.Where("user_id = ? AND is_active = ?", userId, true).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户活跃会话 user_id=%s", userId)
	}
	return sessions, nil
}

// Create 创建会话
func (r *sessionRepository) Create(session *model.LoginSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return wrapDBError(err, "创建登录会话")
	}
	return nil
}

// Deactivate 注销单个会话
func (r *sessionRepository) Deactivate(uuid string) error {
	if err := r.db.Model(&model.LoginSession{}).Where("uuid = ?", uuid).
		Update("is_active", false).Error; err != nil {
		return wrapDBErrorf(err, "注销登录会话 uuid=%s", uuid)
	}
	return nil
}

// DeactivateByUser 注销用户的所有会话
func (r *sessionRepository) DeactivateByUser(userId string) error {
	if err := r.db.Model(&model.LoginSession{}).
		Where("user_id = ? AND is_active = ?", userId, true).
		Update("is_active", false).Error; err != nil {
		return wrapDBErrorf(err, "注销用户全部会话 user_id=%s", userId)
	}
	return nil
}

// DeleteExpired 物理清理指定时间之前过期的会话
func (r *sessionRepository) DeleteExpired(before time.Time) (int64, error) {
	result := r.db.Unscoped().Where("expires_at < ?", before).Delete(&model.LoginSession{})
	if result.Error != nil {
		return 0, wrapDBError(result.Error, "清理过期登录会话")
	}
	return result.RowsAffected, nil
}
