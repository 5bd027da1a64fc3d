// Package chat 实现消息核心的实时分发层
// channel_broker.go
// 核心职责：单机模式下的事件代理实现
// 1. 维护在线用户连接 (Channel 模式)
// 2. 事件经进程内通道直接路由分发
// 3. 管理用户上线/下线事件
// 4. 不依赖外部消息队列，适合小规模或开发环境
package chat

import (
	"context"

	"go.uber.org/zap"

	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/pkg/constants"
)

// ChannelBroker 进程内通道实现的事件代理
type ChannelBroker struct {
	*fanout

	// Events 事件分发通道
	Events chan []byte
	// Login 客户端上线通道
	Login chan *UserConn
	// Logout 客户端下线通道
	Logout chan *UserConn
}

// NewChannelBroker 创建 ChannelBroker 实例（依赖注入）
func NewChannelBroker(convRepo repository.ConversationRepository) *ChannelBroker {
	return &ChannelBroker{
		fanout: newFanout(convRepo),
		Events: make(chan []byte, constants.CHANNEL_SIZE),
		Login:  make(chan *UserConn, constants.CHANNEL_SIZE),
		Logout: make(chan *UserConn, constants.CHANNEL_SIZE),
	}
}

// Start 启动事件分发主循环
// 1. 事件消费循环 (Events channel)：接收事件 -> 反序列化 -> 按会话参与者投递
// 2. 客户端管理循环 (Login/Logout channels)：维护在线客户端映射表
func (b *ChannelBroker) Start() {
	for {
		select {
		// 处理客户端上线事件
		case client, ok := <-b.Login:
			if !ok {
				return
			}
			if client == nil {
				continue
			}
			b.register(client)

		// 处理客户端下线事件
		case client, ok := <-b.Logout:
			if !ok {
				return
			}
			if client == nil {
				continue
			}
			b.unregister(client)

		// 处理事件分发（核心循环）
		case data, ok := <-b.Events:
			if !ok {
				return
			}
			event, err := DecodeEvent(data)
			if err != nil {
				zap.L().Error(err.Error())
				continue // 反序列化失败则跳过该事件
			}
			b.deliver(event)
		}
	}
}

// Publish 实现 EventBroker 接口：发布事件到进程内通道
// 相对持久化写入是 fire-and-forget：通道满时丢弃并记日志，
// 不回滚也不阻塞调用方，客户端靠拉取接口对账
func (b *ChannelBroker) Publish(ctx context.Context, data []byte) error {
	select {
	case b.Events <- data:
		return nil
	default:
		zap.L().Warn("event channel full, event dropped")
		return nil
	}
}

// RegisterClient 实现 EventBroker 接口：注册客户端
func (b *ChannelBroker) RegisterClient(client *UserConn) {
	b.Login <- client
}

// UnregisterClient 实现 EventBroker 接口：注销客户端
func (b *ChannelBroker) UnregisterClient(client *UserConn) {
	b.Logout <- client
}

// GetClient 实现 EventBroker 接口：获取客户端
func (b *ChannelBroker) GetClient(userId string) *UserConn {
	return b.getClient(userId)
}

// Close 关闭服务通道
func (b *ChannelBroker) Close() {
	close(b.Login)
	close(b.Logout)
	close(b.Events)
}
