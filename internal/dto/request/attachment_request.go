package request

// AttachmentURLRequest 获取附件下载链接请求（query 参数）
type AttachmentURLRequest struct {
	AttachmentId string `form:"attachmentId" binding:"required"` // 附件 uuid
}
