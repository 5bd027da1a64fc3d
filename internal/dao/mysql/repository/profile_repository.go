package repository

import (
	"edumsg_server/internal/model"

	"gorm.io/gorm"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建用户资料 Repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// FindByUuid 按 UUID 查找用户
func (r *profileRepository) FindByUuid(uuid string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.db.Where("uuid = ?", uuid).First(&profile).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &profile, nil
}

// FindByEmail 按邮箱查找用户
func (r *profileRepository) FindByEmail(email string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := r.db.Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 email=%s", email)
	}
	return &profile, nil
}

// FindByUuids 批量按 UUID 查找用户
func (r *profileRepository) FindByUuids(uuids []string) ([]model.UserProfile, error) {
	if len(uuids) == 0 {
		return []model.UserProfile{}, nil
	}
	var profiles []model.UserProfile
	if err := r.db.Where("uuid IN ?", uuids).Find(&profiles).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return profiles, nil
}

// Create 创建用户资料
// 邮箱唯一索引冲突返回 CodeConflict
func (r *profileRepository) Create(profile *model.UserProfile) error {
	if err := r.db.Create(profile).Error; err != nil {
		return wrapDBError(err, "创建用户资料")
	}
	return nil
}

// Update 更新用户资料
func (r *profileRepository) Update(profile *model.UserProfile) error {
	if err := r.db.Save(profile).Error; err != nil {
		return wrapDBErrorf(err, "更新用户资料 uuid=%s", profile.Uuid)
	}
	return nil
}
