// Package chat 实现消息核心的实时分发层
// fanout.go
// 核心职责：事件到在线客户端的投递
// Channel 模式与 Kafka 模式共用这套投递逻辑：两种 Broker 只在
// 事件如何到达本进程上有差异，到达后的分发完全一致
package chat

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/pkg/constants"
)

// fanout 在线客户端注册表与事件分发器
type fanout struct {
	// clients 在线客户端映射表，Key 为用户 UUID，Value 为 *UserConn
	// 使用 sync.Map 实现并发安全，无需手动加锁
	clients sync.Map

	// convRepo 会话 Repository
	// 事件未携带投递目标时按会话解析参与者
	convRepo repository.ConversationRepository

	// 输入提示的自动过期定时器，Key 为 "conversationId|userId"
	typingMu     sync.Mutex
	typingTimers map[string]*time.Timer
}

func newFanout(convRepo repository.ConversationRepository) *fanout {
	return &fanout{
		convRepo:     convRepo,
		typingTimers: make(map[string]*time.Timer),
	}
}

// register 客户端上线
func (f *fanout) register(client *UserConn) {
	f.clients.Store(client.Uuid, client)
	zap.L().Info("realtime client online", zap.String("user_id", client.Uuid))
}

// unregister 客户端下线
// 先移出注册表再关闭下发通道：并发中的投递经 trySend 探知关闭状态，
// 不会写到已关闭的通道上
func (f *fanout) unregister(client *UserConn) {
	f.clients.Delete(client.Uuid)
	client.shutdown()
	zap.L().Info("realtime client offline", zap.String("user_id", client.Uuid))
}

// getClient 获取指定用户的连接，不在线返回 nil
func (f *fanout) getClient(userId string) *UserConn {
	value, ok := f.clients.Load(userId)
	if !ok {
		return nil
	}
	return value.(*UserConn)
}

// resolveTargets 解析事件的投递目标
// 事件已带 Targets 时直接使用；否则按会话查参与者，
// 并校验触发者确实是会话成员（WS 入站事件不可信）
func (f *fanout) resolveTargets(event *Event) []string {
	if len(event.Targets) > 0 {
		return event.Targets
	}
	conversation, err := f.convRepo.FindByUuid(event.ConversationId)
	if err != nil {
		zap.L().Warn("resolve event targets failed",
			zap.String("conversation_id", event.ConversationId), zap.Error(err))
		return nil
	}
	if !conversation.HasParticipant(event.SenderId) {
		zap.L().Warn("event sender is not a participant",
			zap.String("conversation_id", event.ConversationId),
			zap.String("sender_id", event.SenderId))
		return nil
	}
	return []string{conversation.ParticipantLowId, conversation.ParticipantHighId}
}

// deliver 把事件推送给目标用户中当前在线的连接
// 投递失败只记日志：持久化写入才是事实来源，推送丢失由客户端
// 重连后通过拉取接口补齐
func (f *fanout) deliver(event *Event) {
	targets := f.resolveTargets(event)
	if len(targets) == 0 {
		return
	}

	// 输入提示只发给对方，且设置自动过期
	if event.Type == EventTyping {
		f.deliverTyping(event, targets)
		return
	}

	data, err := event.Encode()
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	for _, target := range targets {
		f.push(target, data)
	}
}

// deliverTyping 投递输入提示并挂起自动过期定时器
// 客户端不发停止信号也没关系：超过 TTL 未续期就自动广播 stopped
func (f *fanout) deliverTyping(event *Event, targets []string) {
	data, err := event.Encode()
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	for _, target := range targets {
		if target == event.SenderId {
			continue // 自己不需要看到自己的输入提示
		}
		f.push(target, data)
	}

	// 过期广播和实时提示一样跳过触发者本人
	stoppedTargets := make([]string, 0, len(targets))
	for _, target := range targets {
		if target != event.SenderId {
			stoppedTargets = append(stoppedTargets, target)
		}
	}

	key := event.ConversationId + "|" + event.SenderId
	stopped := Event{
		Type:           EventTypingStopped,
		ConversationId: event.ConversationId,
		SenderId:       event.SenderId,
		Targets:        stoppedTargets,
	}

	f.typingMu.Lock()
	defer f.typingMu.Unlock()
	if timer, ok := f.typingTimers[key]; ok {
		// 续期：重置已有定时器
		timer.Reset(constants.TYPING_TTL_SECONDS * time.Second)
		return
	}
	f.typingTimers[key] = time.AfterFunc(constants.TYPING_TTL_SECONDS*time.Second, func() {
		f.typingMu.Lock()
		delete(f.typingTimers, key)
		f.typingMu.Unlock()
		f.deliver(&stopped)
	})
}

// push 向单个在线用户推送原始数据
func (f *fanout) push(userId string, data []byte) {
	client := f.getClient(userId)
	if client == nil {
		return // 不在线，留给拉取接口对账
	}
	if !client.trySend(data) {
		// 连接已关闭或写缓冲满：丢弃而不是阻塞分发循环
		zap.L().Warn("client unavailable, event dropped", zap.String("user_id", userId))
	}
}
