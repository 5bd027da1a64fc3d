package repository

import (
	"edumsg_server/internal/model"

	"gorm.io/gorm"
)

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建附件 Repository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

// FindByUuid 按 UUID 查找附件
func (r *attachmentRepository) FindByUuid(uuid string) (*model.Attachment, error) {
	var attachment model.Attachment
	if err := r.db.Where("uuid = ?", uuid).First(&attachment).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询附件 uuid=%s", uuid)
	}
	return &attachment, nil
}

// FindByMessageId 查找消息的所有附件
func (r *attachmentRepository) FindByMessageId(messageId int64) ([]model.Attachment, error) {
	var attachments []model.Attachment
	if err := r.db.Where("message_id = ?", messageId).Find(&attachments).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息附件 message_id=%d", messageId)
	}
	return attachments, nil
}

// FindByStoragePath 按存储路径查找附件
func (r *attachmentRepository) FindByStoragePath(storagePath string) (*model.Attachment, error) {
	var attachment model.Attachment
	if err := r.db.Where("storage_path = ?", storagePath).First(&attachment).Error; err != nil {
		return nil, wrapDBErrorf(err, "按存储路径查询附件 path=%s", storagePath)
	}
	return &attachment, nil
}

// Create 创建附件记录
func (r *attachmentRepository) Create(attachment *model.Attachment) error {
	if err := r.db.Create(attachment).Error; err != nil {
		return wrapDBError(err, "创建附件")
	}
	return nil
}

// MarkUploaded 标记附件上传完成并回填存储信息
func (r *attachmentRepository) MarkUploaded(uuid string, size int64, storagePath string) error {
	if err := r.db.Model(&model.Attachment{}).Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"is_uploaded":  true,
			"file_size":    size,
			"storage_path": storagePath,
		}).Error; err != nil {
		return wrapDBErrorf(err, "标记附件上传完成 uuid=%s", uuid)
	}
	return nil
}

// IncrementDownloadCount 下载计数 +1
// 使用表达式自增，避免读-改-写竞态
func (r *attachmentRepository) IncrementDownloadCount(uuid string) error {
	if err := r.db.Model(&model.Attachment{}).Where("uuid = ?", uuid).
		Update("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
		return wrapDBErrorf(err, "附件下载计数 uuid=%s", uuid)
	}
	return nil
}
