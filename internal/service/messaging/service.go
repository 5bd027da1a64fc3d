// Package messaging 实现消息门面
// 组合会话、消息、附件三类存取与实时分发，每个变更操作都经由
// 安全服务完成认证与节流；HTTP 层只做参数绑定，业务规则全部在这里
package messaging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/mysql/repository"
	myredis "edumsg_server/internal/dao/redis"
	"edumsg_server/internal/dto/respond"
	"edumsg_server/internal/infrastructure/blob"
	"edumsg_server/internal/model"
	"edumsg_server/internal/service/chat"
	"edumsg_server/internal/service/security"
	"edumsg_server/pkg/errorx"
)

// errForbidden 统一的越权错误
// 不区分"会话不存在"与"不是参与者"之外的细节，避免探测
func errForbidden() error {
	return errorx.New(errorx.CodeForbidden, "无权访问该会话")
}

// timeLayout 响应体中的时间格式
const timeLayout = "2006-01-02 15:04:05"

// 限流动作名
const (
	actionConversationCreate = "conversation_create"
	actionMessageSend        = "message_send"
	actionAttachmentUpload   = "attachment_upload"
)

// unreadTotalKey 未读总数缓存键
func unreadTotalKey(userId string) string {
	return "unread_total:" + userId
}

// unreadConvKey 单个会话的未读数缓存键
// 前缀 unread:<userId>: 便于按用户整体失效
func unreadConvKey(userId, conversationId string) string {
	return "unread:" + userId + ":" + conversationId
}

// Service 消息门面
type Service struct {
	repos  *repository.Repositories
	cache  myredis.AsyncCacheService
	sec    *security.Service
	broker chat.EventBroker
	blob   blob.Store
	conf   *config.Config
}

// NewService 创建消息门面
func NewService(
	conf *config.Config,
	repos *repository.Repositories,
	cache myredis.AsyncCacheService,
	sec *security.Service,
	broker chat.EventBroker,
	blobStore blob.Store,
) *Service {
	return &Service{
		repos:  repos,
		cache:  cache,
		sec:    sec,
		broker: broker,
		blob:   blobStore,
		conf:   conf,
	}
}

// publishEvent 发布实时事件
// 相对持久化写入是 fire-and-forget：发布失败只记日志，绝不回滚写入，
// 客户端重连后通过消息分页和未读数接口对账
func (s *Service) publishEvent(event *chat.Event) {
	if s.broker == nil {
		return
	}
	data, err := event.Encode()
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	if err := s.broker.Publish(context.Background(), data); err != nil {
		zap.L().Warn("publish realtime event failed",
			zap.String("type", event.Type),
			zap.String("conversation_id", event.ConversationId),
			zap.Error(err))
	}
}

// invalidateUnreadCache 异步失效某用户的全部未读数缓存
// 包括未读总数和各会话的未读数
func (s *Service) invalidateUnreadCache(userId string) {
	if s.cache == nil {
		return
	}
	s.cache.SubmitTask(func() {
		ctx := context.Background()
		if err := s.cache.Delete(ctx, unreadTotalKey(userId)); err != nil {
			zap.L().Warn("invalidate unread cache failed", zap.String("user_id", userId), zap.Error(err))
		}
		if err := s.cache.DeleteByPattern(ctx, "unread:"+userId+":*"); err != nil {
			zap.L().Warn("invalidate unread cache failed", zap.String("user_id", userId), zap.Error(err))
		}
	})
}

// unreadInConversation 读取某会话的未读数，带短期缓存
// 消息写入与已读操作会整体失效该用户的未读缓存
func (s *Service) unreadInConversation(ctx context.Context, userId, conversationId string) (int64, error) {
	key := unreadConvKey(userId, conversationId)
	if cached, err := s.cache.GetOrError(ctx, key); err == nil {
		if count, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return count, nil
		}
	}

	count, err := s.repos.Message.CountUnread(conversationId, userId)
	if err != nil {
		return 0, err
	}
	s.cache.SubmitTask(func() {
		_ = s.cache.Set(context.Background(), key, strconv.FormatInt(count, 10), time.Minute)
	})
	return count, nil
}

// loadConversationForParticipant 加载会话并校验调用方是参与者
// 非参与者与不存在的会话返回同样的错误分类，不泄露会话是否存在
func (s *Service) loadConversationForParticipant(callerId, conversationId string) (*model.Conversation, error) {
	conversation, err := s.repos.Conversation.FindByUuid(conversationId)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(callerId) {
		return nil, errForbidden()
	}
	return conversation, nil
}

// messageToRespond 把消息模型转换为响应体
func messageToRespond(m *model.Message) *respond.MessageRespond {
	rsp := &respond.MessageRespond{
		MessageId:       m.Uuid,
		ConversationId:  m.ConversationId,
		SenderId:        m.SenderId,
		Type:            m.Type,
		Content:         m.Content,
		ParentMessageId: m.ParentMessageId,
		ThreadDepth:     m.ThreadDepth,
		IsEdited:        m.IsEdited,
		IsRead:          m.IsRead,
		CreatedAt:       m.CreatedAt.Format(timeLayout),
	}
	if m.EditedAt.Valid {
		rsp.EditedAt = m.EditedAt.Time.Format(timeLayout)
	}
	if m.ReadAt.Valid {
		rsp.ReadAt = m.ReadAt.Time.Format(timeLayout)
	}
	return rsp
}

// marshalPayload 序列化事件载荷
func marshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error(err.Error())
		return nil
	}
	return data
}

// previewOf 生成会话列表用的消息摘要
func previewOf(content string) string {
	runes := []rune(content)
	if len(runes) > 100 {
		return string(runes[:100])
	}
	return content
}

// editWindow 消息可编辑窗口
func (s *Service) editWindow() time.Duration {
	return time.Duration(s.conf.SecurityConfig.EditWindowMinutes) * time.Minute
}
