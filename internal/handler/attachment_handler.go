// Package handler 提供 HTTP 请求处理器
// 本文件处理附件相关的 API 请求
package handler

import (
	"strconv"

	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/service/messaging"
	"edumsg_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// AttachmentHandler 附件请求处理器
type AttachmentHandler struct {
	svc *messaging.Service
}

// NewAttachmentHandler 创建附件 Handler
func NewAttachmentHandler(svc *messaging.Service) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload 上传附件
// POST /attachment/upload (multipart/form-data)
// 表单字段: messageId - 所属消息雪花 ID; file - 文件内容
func (h *AttachmentHandler) Upload(c *gin.Context) {
	messageId, err := strconv.ParseInt(c.PostForm("messageId"), 10, 64)
	if err != nil || messageId <= 0 {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "messageId 不合法"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "缺少上传文件"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		HandleError(c, errorx.Wrap(err, errorx.CodeInvalidParam, "读取上传文件失败"))
		return
	}
	defer file.Close()

	data, err := h.svc.UploadAttachment(
		c.Request.Context(),
		callerId(c),
		messageId,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetURL 获取附件的限时下载链接
// GET /attachment/url?attachmentId=
func (h *AttachmentHandler) GetURL(c *gin.Context) {
	var req request.AttachmentURLRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.svc.GetAttachmentURL(c.Request.Context(), callerId(c), req.AttachmentId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Download 通过签名令牌下载附件
// GET /attachment/download?token=
// 令牌自带过期时间和签名，无需再走认证中间件
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "缺少下载令牌"))
		return
	}
	path, err := h.svc.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.File(path)
}
