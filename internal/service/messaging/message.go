// Package messaging 实现消息门面
// 本文件实现消息生命周期：发送、编辑、删除、已读、分页、搜索、未读统计
package messaging

import (
	"context"
	"database/sql"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/dto/respond"
	"edumsg_server/internal/model"
	"edumsg_server/internal/service/chat"
	"edumsg_server/internal/service/security"
	"edumsg_server/pkg/constants"
	"edumsg_server/pkg/errorx"
	"edumsg_server/pkg/util/snowflake"
)

// SendMessage 发送消息
// 校验顺序：限流 -> 会话成员资格 -> 内容长度 -> 净化 -> 回复深度。
// 持久化成功后更新会话摘要并发布实时事件（fire-and-forget）
func (s *Service) SendMessage(ctx context.Context, callerId string, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	if _, err := s.sec.CheckRateLimit(ctx, actionMessageSend, callerId, s.sec.MessagePolicy()); err != nil {
		return nil, err
	}

	conversation, err := s.loadConversationForParticipant(callerId, req.ConversationId)
	if err != nil {
		return nil, err
	}

	content, err := s.validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	if req.Type != model.MessageTypeText && req.Type != model.MessageTypeFile && req.Type != model.MessageTypeSystem {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息类型不合法")
	}

	// 回复消息：深度 = 父消息深度 + 1，超过上限拒绝
	threadDepth := 0
	if req.ParentMessageId != 0 {
		parent, err := s.repos.Message.FindByUuid(req.ParentMessageId)
		if err != nil {
			return nil, errorx.Wrap(err, errorx.CodeNotFound, "父消息不存在")
		}
		if parent.ConversationId != conversation.Uuid {
			return nil, errorx.New(errorx.CodeInvalidParam, "父消息不属于该对话")
		}
		threadDepth = parent.ThreadDepth + 1
		if threadDepth > s.conf.SecurityConfig.MaxThreadDepth {
			return nil, errorx.Newf(errorx.CodeInvalidParam, "回复嵌套超过 %d 层", s.conf.SecurityConfig.MaxThreadDepth)
		}
	}

	message := &model.Message{
		Uuid:            snowflake.GenerateID(),
		ConversationId:  conversation.Uuid,
		SenderId:        callerId,
		Type:            req.Type,
		Content:         content,
		ParentMessageId: req.ParentMessageId,
		ThreadDepth:     threadDepth,
	}
	if err := s.repos.Message.Create(message); err != nil {
		return nil, err
	}

	// 更新会话摘要；失败不影响已写入的消息
	if err := s.repos.Conversation.UpdateLastMessage(conversation.Uuid, previewOf(content), time.Now()); err != nil {
		zap.L().Warn("update conversation preview failed",
			zap.String("conversation_id", conversation.Uuid), zap.Error(err))
	}

	rsp := messageToRespond(message)
	s.publishEvent(&chat.Event{
		Type:           chat.EventNewMessage,
		ConversationId: conversation.Uuid,
		SenderId:       callerId,
		MessageId:      message.Uuid,
		Payload:        marshalPayload(rsp),
		Targets:        []string{conversation.ParticipantLowId, conversation.ParticipantHighId},
	})
	s.invalidateUnreadCache(conversation.OtherParticipant(callerId))
	return rsp, nil
}

// EditMessage 编辑消息
// 仅发送者本人可编辑，且必须在可编辑时间窗口内；
// 首次编辑把原文快照进 original_content，之后的编辑不再覆盖快照
func (s *Service) EditMessage(ctx context.Context, callerId string, req request.EditMessageRequest) (*respond.MessageRespond, error) {
	message, err := s.repos.Message.FindByUuid(req.MessageId)
	if err != nil {
		return nil, err
	}
	if message.SenderId != callerId {
		return nil, errorx.New(errorx.CodeForbidden, "只有发送者可以编辑消息")
	}
	if time.Since(message.CreatedAt) > s.editWindow() {
		return nil, errorx.New(errorx.CodeForbidden, "已超出可编辑时间窗口")
	}

	content, err := s.validateContent(req.NewContent)
	if err != nil {
		return nil, err
	}

	if !message.IsEdited {
		message.OriginalContent = message.Content
	}
	message.Content = content
	message.IsEdited = true
	message.EditedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.repos.Message.Update(message); err != nil {
		return nil, err
	}

	rsp := messageToRespond(message)
	s.publishEvent(&chat.Event{
		Type:           chat.EventMessageEdited,
		ConversationId: message.ConversationId,
		SenderId:       callerId,
		MessageId:      message.Uuid,
		Payload:        marshalPayload(rsp),
	})
	return rsp, nil
}

// DeleteMessage 软删除消息
// 行保留在表中，后续常规检索全部排除；附件仍可按 ID 寻址，
// 但访问授权会重新校验所属消息的可见性
func (s *Service) DeleteMessage(ctx context.Context, callerId string, messageId int64) error {
	message, err := s.repos.Message.FindByUuid(messageId)
	if err != nil {
		return err
	}
	if message.SenderId != callerId {
		return errorx.New(errorx.CodeForbidden, "只有发送者可以删除消息")
	}
	if err := s.repos.Message.MarkDeleted(message.Uuid); err != nil {
		return err
	}

	s.publishEvent(&chat.Event{
		Type:           chat.EventMessageDeleted,
		ConversationId: message.ConversationId,
		SenderId:       callerId,
		MessageId:      message.Uuid,
	})
	// 对方的未读数可能因此变化
	conversation, err := s.repos.Conversation.FindByUuid(message.ConversationId)
	if err == nil {
		s.invalidateUnreadCache(conversation.OtherParticipant(callerId))
	}
	return nil
}

// GetMessageById 按 ID 直查消息（审计路径）
// 软删除的消息也返回；仅会话参与者可查。附件元数据一并带出
func (s *Service) GetMessageById(ctx context.Context, callerId string, messageId int64) (*respond.MessageRespond, error) {
	message, err := s.repos.Message.FindByUuidAny(messageId)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadConversationForParticipant(callerId, message.ConversationId); err != nil {
		return nil, err
	}

	rsp := messageToRespond(message)
	attachments, err := s.repos.Attachment.FindByMessageId(message.Uuid)
	if err != nil {
		return nil, err
	}
	for i := range attachments {
		rsp.Attachments = append(rsp.Attachments, *attachmentToRespond(&attachments[i]))
	}
	return rsp, nil
}

// MarkMessageAsRead 标记单条消息已读
// 幂等：重复标记是空操作。只有接收方可以标记
func (s *Service) MarkMessageAsRead(ctx context.Context, callerId string, messageId int64) error {
	message, err := s.repos.Message.FindByUuid(messageId)
	if err != nil {
		return err
	}
	conversation, err := s.loadConversationForParticipant(callerId, message.ConversationId)
	if err != nil {
		return err
	}
	if message.SenderId == callerId {
		return errorx.New(errorx.CodeInvalidParam, "不能标记自己发送的消息")
	}
	if message.IsRead {
		return nil // 幂等
	}
	if err := s.repos.Message.MarkRead(message.Uuid, time.Now()); err != nil {
		return err
	}

	s.publishEvent(&chat.Event{
		Type:           chat.EventReadReceipt,
		ConversationId: conversation.Uuid,
		SenderId:       callerId,
		MessageId:      message.Uuid,
		Payload: marshalPayload(respond.ReadReceiptRespond{
			ConversationId: conversation.Uuid,
			ReaderId:       callerId,
			Count:          1,
		}),
		Targets: []string{conversation.ParticipantLowId, conversation.ParticipantHighId},
	})
	s.invalidateUnreadCache(callerId)
	return nil
}

// MarkConversationAsRead 标记会话内全部未读消息已读
// 返回本次转为已读的消息数；幂等，已读会话返回 0
func (s *Service) MarkConversationAsRead(ctx context.Context, callerId, conversationId string) (int64, error) {
	conversation, err := s.loadConversationForParticipant(callerId, conversationId)
	if err != nil {
		return 0, err
	}
	count, err := s.repos.Message.MarkConversationRead(conversation.Uuid, callerId, time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.publishEvent(&chat.Event{
			Type:           chat.EventReadReceipt,
			ConversationId: conversation.Uuid,
			SenderId:       callerId,
			Payload: marshalPayload(respond.ReadReceiptRespond{
				ConversationId: conversation.Uuid,
				ReaderId:       callerId,
				Count:          count,
			}),
			Targets: []string{conversation.ParticipantLowId, conversation.ParticipantHighId},
		})
		s.invalidateUnreadCache(callerId)
	}
	return count, nil
}

// GetConversationMessages 分页查询会话消息
// 固定按时间顺序（旧到新）返回；排序键是唯一的雪花 ID，
// 无并发写入时相邻页拼接不重不漏
func (s *Service) GetConversationMessages(ctx context.Context, callerId string, req request.MessageListRequest) ([]respond.MessageRespond, error) {
	conversation, err := s.loadConversationForParticipant(callerId, req.ConversationId)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	messages, err := s.repos.Message.FindByConversation(conversation.Uuid, limit, offset)
	if err != nil {
		return nil, err
	}
	result := make([]respond.MessageRespond, 0, len(messages))
	for i := range messages {
		result = append(result, *messageToRespond(&messages[i]))
	}
	return result, nil
}

// GetTotalUnreadCount 查询调用方的未读消息总数
// 结果短暂缓存，消息写入/已读操作会异步失效缓存
func (s *Service) GetTotalUnreadCount(ctx context.Context, callerId string) (int64, error) {
	key := unreadTotalKey(callerId)
	if cached, err := s.cache.GetOrError(ctx, key); err == nil {
		if total, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return total, nil
		}
	}

	conversations, err := s.repos.Conversation.FindByParticipant(callerId)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(conversations))
	for i := range conversations {
		ids = append(ids, conversations[i].Uuid)
	}
	total, err := s.repos.Message.CountUnreadForUser(callerId, ids)
	if err != nil {
		return 0, err
	}

	s.cache.SubmitTask(func() {
		_ = s.cache.Set(context.Background(), key, strconv.FormatInt(total, 10), time.Minute)
	})
	return total, nil
}

// SearchMessages 搜索消息
// 搜索词低于最短长度直接拒绝，避免一两个字符扫全表；
// 搜索范围天然限定在调用方参与的会话内
func (s *Service) SearchMessages(ctx context.Context, callerId string, req request.SearchMessagesRequest) ([]respond.MessageRespond, error) {
	query := security.SanitizeInput(req.Query)
	if utf8.RuneCountInString(query) < s.conf.SecurityConfig.MinSearchLength {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "搜索词至少 %d 个字符", s.conf.SecurityConfig.MinSearchLength)
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	conversations, err := s.repos.Conversation.FindByParticipant(callerId)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(conversations))
	for i := range conversations {
		ids = append(ids, conversations[i].Uuid)
	}

	messages, err := s.repos.Message.Search(ids, query, limit)
	if err != nil {
		return nil, err
	}
	result := make([]respond.MessageRespond, 0, len(messages))
	for i := range messages {
		result = append(result, *messageToRespond(&messages[i]))
	}
	return result, nil
}

// validateContent 校验并净化消息内容
// 原始长度超限与净化后为空都按参数错误处理
func (s *Service) validateContent(raw string) (string, error) {
	if raw == "" {
		return "", errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}
	if utf8.RuneCountInString(raw) > constants.MESSAGE_MAX_LENGTH {
		return "", errorx.Newf(errorx.CodeInvalidParam, "消息内容超过 %d 字符上限", constants.MESSAGE_MAX_LENGTH)
	}
	content := security.SanitizeContent(raw)
	if content == "" {
		return "", errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}
	return content, nil
}
