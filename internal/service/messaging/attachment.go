// Package messaging 实现消息门面
// 本文件实现附件上传与签名下载链接
package messaging

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"edumsg_server/internal/dto/respond"
	"edumsg_server/internal/model"
	"edumsg_server/internal/service/security"
	"edumsg_server/pkg/errorx"
	"edumsg_server/pkg/util/random"
)

// putRetries 对象存储写入的最大尝试次数
const putRetries = 3

// UploadAttachment 上传消息附件
// 校验顺序：限流 -> 消息归属（仅发送者可补附件）-> 大小上限 -> 扩展名白名单。
// 二进制交给对象存储，本服务只保留元数据；写入带超时与有限重试
func (s *Service) UploadAttachment(ctx context.Context, callerId string, messageId int64, filename, mimeType string, size int64, r io.Reader) (*respond.AttachmentRespond, error) {
	if _, err := s.sec.CheckRateLimit(ctx, actionAttachmentUpload, callerId, s.sec.UploadPolicy()); err != nil {
		return nil, err
	}

	message, err := s.repos.Message.FindByUuid(messageId)
	if err != nil {
		return nil, err
	}
	if message.SenderId != callerId {
		return nil, errorx.New(errorx.CodeForbidden, "只有发送者可以为消息上传附件")
	}

	if size <= 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "文件内容为空")
	}
	if size > s.conf.AttachmentConfig.MaxSizeBytes {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "文件超过 %d 字节上限", s.conf.AttachmentConfig.MaxSizeBytes)
	}

	cleanName := security.SanitizeFilename(filename)
	ext := strings.ToLower(filepath.Ext(cleanName))
	if !s.extAllowed(ext) {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "不支持的文件类型 %s", ext)
	}

	attachment := &model.Attachment{
		Uuid:             "A" + random.GetNowAndLenRandomString(11),
		MessageId:        message.Uuid,
		ConversationId:   message.ConversationId,
		OriginalFilename: cleanName,
		MimeType:         mimeType,
		FileSize:         size,
		StoragePath:      "attachments/" + message.ConversationId + "/" + random.GetRandomHex(16) + ext,
		IsUploaded:       false,
	}
	if err := s.repos.Attachment.Create(attachment); err != nil {
		return nil, err
	}

	if err := s.putWithRetry(ctx, attachment, r); err != nil {
		return nil, err
	}

	if err := s.repos.Attachment.MarkUploaded(attachment.Uuid, size, attachment.StoragePath); err != nil {
		return nil, err
	}
	attachment.IsUploaded = true

	zap.L().Info("attachment uploaded",
		zap.String("attachment_id", attachment.Uuid),
		zap.Int64("message_id", message.Uuid),
		zap.Int64("size", size))
	return attachmentToRespond(attachment), nil
}

// putWithRetry 写入对象存储，瞬时故障做有限次退避重试
// 超时（调用方的 ctx 截止）不重试，直接上抛
func (s *Service) putWithRetry(ctx context.Context, attachment *model.Attachment, r io.Reader) error {
	// 为了可重试，先把内容读进内存；上限由前置的大小校验保证
	data, err := io.ReadAll(r)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeInvalidParam, "读取上传内容失败")
	}

	timeout := time.Duration(s.conf.AttachmentConfig.UploadTimeoutSec) * time.Second
	backoff := 100 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < putRetries; attempt++ {
		putCtx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = s.blob.Put(putCtx, attachment.StoragePath, bytes.NewReader(data), attachment.MimeType)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			// 调用方已取消/超时，重试没有意义
			break
		}
		zap.L().Warn("blob put failed, retrying",
			zap.String("attachment_id", attachment.Uuid),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
		time.Sleep(backoff)
		backoff *= 2
	}
	return errorx.Wrap(lastErr, errorx.CodeUpstream, "附件写入对象存储失败")
}

// GetAttachmentURL 签发附件的限时下载链接
// 仅所属会话的参与者可获取；所属消息被软删除后附件按不存在处理
func (s *Service) GetAttachmentURL(ctx context.Context, callerId, attachmentId string) (*respond.AttachmentURLRespond, error) {
	attachment, err := s.repos.Attachment.FindByUuid(attachmentId)
	if err != nil {
		return nil, err
	}

	conversation, err := s.repos.Conversation.FindByUuid(attachment.ConversationId)
	if err != nil {
		return nil, err
	}
	if !security.CanAccessAttachment(callerId, conversation) {
		return nil, errorx.New(errorx.CodeForbidden, "无权访问该附件")
	}

	// 所属消息的可见性重新校验：软删除的消息与不存在同样处理
	if _, err := s.repos.Message.FindByUuid(attachment.MessageId); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeNotFound, "附件不存在")
	}
	if !attachment.IsUploaded {
		return nil, errorx.New(errorx.CodeNotFound, "附件尚未上传完成")
	}

	ttl := time.Duration(s.conf.AttachmentConfig.SignedURLMinutes) * time.Minute
	url, err := s.blob.SignedURL(attachment.StoragePath, ttl)
	if err != nil {
		return nil, err
	}
	return &respond.AttachmentURLRespond{
		Url:       url,
		ExpiresAt: time.Now().Add(ttl).Format(timeLayout),
	}, nil
}

// ResolveDownload 校验下载令牌并返回本地文件路径
// 下载计数在实际取文件时累加，而不是签发链接时
func (s *Service) ResolveDownload(ctx context.Context, token string) (string, error) {
	path, err := s.blob.Resolve(token)
	if err != nil {
		return "", err
	}
	// 按存储路径反查附件以累加下载计数；找不到也不阻塞下载
	s.cache.SubmitTask(func() {
		s.countDownload(path)
	})
	return path, nil
}

// countDownload 按存储路径累加下载计数
func (s *Service) countDownload(localPath string) {
	// 存储句柄是相对路径，本地路径取最后三段还原
	parts := strings.Split(filepath.ToSlash(localPath), "/")
	if len(parts) < 3 {
		return
	}
	storagePath := strings.Join(parts[len(parts)-3:], "/")
	attachment, err := s.repos.Attachment.FindByStoragePath(storagePath)
	if err != nil {
		return
	}
	if err := s.repos.Attachment.IncrementDownloadCount(attachment.Uuid); err != nil {
		zap.L().Warn("increment download count failed", zap.Error(err))
	}
}

// extAllowed 检查扩展名是否在白名单内
func (s *Service) extAllowed(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range s.conf.AttachmentConfig.AllowedExts {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// attachmentToRespond 把附件模型转换为响应体
func attachmentToRespond(a *model.Attachment) *respond.AttachmentRespond {
	return &respond.AttachmentRespond{
		AttachmentId:     a.Uuid,
		MessageId:        a.MessageId,
		OriginalFilename: a.OriginalFilename,
		MimeType:         a.MimeType,
		FileSize:         a.FileSize,
		IsUploaded:       a.IsUploaded,
		DownloadCount:    a.DownloadCount,
		CreatedAt:        a.CreatedAt.Format(timeLayout),
	}
}
