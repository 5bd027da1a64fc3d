// Package messaging 实现消息门面
// 本文件实现会话生命周期：创建、列表、归档、免打扰
package messaging

import (
	"context"

	"go.uber.org/zap"

	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/dto/respond"
	"edumsg_server/internal/model"
	"edumsg_server/internal/service/security"
	"edumsg_server/pkg/errorx"
	"edumsg_server/pkg/util/random"
)

// CreateConversation 创建对话
// 规则：调用方与对方的角色必须构成允许的配对（师生，或管理员参与）；
// 同一对参与者最多一条活跃对话，重复创建返回冲突，调用方应复用已有对话。
// 按调用方限流。
func (s *Service) CreateConversation(ctx context.Context, callerId, callerRole string, req request.CreateConversationRequest) (*respond.ConversationRespond, error) {
	if _, err := s.sec.CheckRateLimit(ctx, actionConversationCreate, callerId, s.sec.ConversationPolicy()); err != nil {
		return nil, err
	}

	otherId := req.OtherParticipantId
	if otherId == "" || otherId == callerId {
		return nil, errorx.New(errorx.CodeInvalidParam, "对话参与者不合法")
	}

	// 对方必须真实存在，角色取资料快照
	other, err := s.repos.Profile.FindByUuid(otherId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeInvalidParam, "对话参与者不合法")
		}
		return nil, err
	}
	if !security.CanMessage(callerRole, other.Role) {
		return nil, errorx.New(errorx.CodeInvalidParam, "该角色组合不允许建立对话")
	}

	lowId, highId := model.NormalizePair(callerId, otherId)
	lowRole, highRole := callerRole, other.Role
	if lowId != callerId {
		lowRole, highRole = other.Role, callerRole
	}

	// 先查已有对话给出明确的冲突提示；并发窗口内的重复创建
	// 仍由复合唯一索引兜底
	if existing, err := s.repos.Conversation.FindByPair(lowId, highId); err == nil {
		return nil, errorx.Newf(errorx.CodeConflict, "该参与者对已存在活跃对话 %s", existing.Uuid)
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}

	conversation := &model.Conversation{
		Uuid:                "C" + random.GetNowAndLenRandomString(11),
		ParticipantLowId:    lowId,
		ParticipantHighId:   highId,
		ParticipantLowRole:  lowRole,
		ParticipantHighRole: highRole,
		Title:               security.SanitizeInput(req.Title),
	}

	if err := s.repos.Conversation.Create(conversation); err != nil {
		if errorx.GetCode(err) == errorx.CodeConflict {
			return nil, errorx.Wrap(err, errorx.CodeConflict, "该参与者对已存在活跃对话")
		}
		return nil, err
	}

	zap.L().Info("conversation created",
		zap.String("conversation_id", conversation.Uuid),
		zap.String("low", lowId), zap.String("high", highId))
	rsp := s.conversationToRespond(conversation, callerId, 0)
	rsp.OtherFullName = other.FullName
	return rsp, nil
}

// ListConversations 查询调用方参与的对话列表
// 支持 archived / muted / hasUnread 过滤；按最近消息时间倒序。
// 对方姓名批量查资料快照，未读数走短期缓存
func (s *Service) ListConversations(ctx context.Context, callerId string, filter request.ListConversationsRequest) ([]respond.ConversationRespond, error) {
	conversations, err := s.repos.Conversation.FindByParticipant(callerId)
	if err != nil {
		return nil, err
	}

	// 一次批量查询取回所有对方的资料快照
	otherIds := make([]string, 0, len(conversations))
	for i := range conversations {
		otherIds = append(otherIds, conversations[i].OtherParticipant(callerId))
	}
	names := make(map[string]string, len(otherIds))
	if len(otherIds) > 0 {
		profiles, err := s.repos.Profile.FindByUuids(otherIds)
		if err != nil {
			return nil, err
		}
		for i := range profiles {
			names[profiles[i].Uuid] = profiles[i].FullName
		}
	}

	result := make([]respond.ConversationRespond, 0, len(conversations))
	for i := range conversations {
		conversation := &conversations[i]
		if filter.Archived != nil && conversation.ArchivedFor(callerId) != *filter.Archived {
			continue
		}
		if filter.Muted != nil && conversation.MutedFor(callerId) != *filter.Muted {
			continue
		}

		unread, err := s.unreadInConversation(ctx, callerId, conversation.Uuid)
		if err != nil {
			return nil, err
		}
		if filter.HasUnread != nil && (unread > 0) != *filter.HasUnread {
			continue
		}
		rsp := s.conversationToRespond(conversation, callerId, unread)
		rsp.OtherFullName = names[rsp.OtherParticipantId]
		result = append(result, *rsp)
	}
	return result, nil
}

// SetConversationFlags 设置归档/免打扰
// 标志是参与者各自的，只更新调用方自己一侧的列
func (s *Service) SetConversationFlags(ctx context.Context, callerId string, req request.ConversationFlagRequest) error {
	conversation, err := s.loadConversationForParticipant(callerId, req.ConversationId)
	if err != nil {
		return err
	}
	if req.Archived == nil && req.Muted == nil {
		return errorx.New(errorx.CodeInvalidParam, "缺少要修改的标志")
	}

	isLow := conversation.ParticipantLowId == callerId
	updates := make(map[string]interface{}, 2)
	if req.Archived != nil {
		if isLow {
			updates["low_archived"] = *req.Archived
		} else {
			updates["high_archived"] = *req.Archived
		}
	}
	if req.Muted != nil {
		if isLow {
			updates["low_muted"] = *req.Muted
		} else {
			updates["high_muted"] = *req.Muted
		}
	}
	return s.repos.Conversation.UpdateFlags(conversation.Uuid, updates)
}

// conversationToRespond 把会话模型转换为响应体
func (s *Service) conversationToRespond(c *model.Conversation, callerId string, unread int64) *respond.ConversationRespond {
	otherId := c.OtherParticipant(callerId)
	otherRole := c.ParticipantHighRole
	if otherId == c.ParticipantLowId {
		otherRole = c.ParticipantLowRole
	}
	rsp := &respond.ConversationRespond{
		ConversationId:     c.Uuid,
		OtherParticipantId: otherId,
		OtherRole:          otherRole,
		Title:              c.Title,
		Archived:           c.ArchivedFor(callerId),
		Muted:              c.MutedFor(callerId),
		LastMessage:        c.LastMessage,
		UnreadCount:        unread,
		CreatedAt:          c.CreatedAt.Format(timeLayout),
	}
	if c.LastMessageAt.Valid {
		rsp.LastMessageAt = c.LastMessageAt.Time.Format(timeLayout)
	}
	return rsp
}
