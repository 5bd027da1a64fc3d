// Package chat 实现消息核心的实时分发层
// kafka_broker.go
// 核心职责：Kafka 模式下的事件代理实现
// 事件先写入 Kafka，再由各实例的消费循环读出并投递给本实例的在线连接；
// 多实例部署时每个实例都能看到全量事件，各自负责自己持有的连接
package chat

import (
	"context"

	"go.uber.org/zap"

	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/pkg/constants"
)

// KafkaBroker Kafka 实现的事件代理
type KafkaBroker struct {
	*fanout

	kafkaClient *KafkaClient
	// Login 客户端上线通道
	Login chan *UserConn
	// Logout 客户端下线通道
	Logout chan *UserConn
	// stop 消费循环停止信号
	stop chan struct{}
}

// NewKafkaBroker 创建 KafkaBroker 实例（依赖注入）
func NewKafkaBroker(kafkaClient *KafkaClient, convRepo repository.ConversationRepository) *KafkaBroker {
	return &KafkaBroker{
		fanout:      newFanout(convRepo),
		kafkaClient: kafkaClient,
		Login:       make(chan *UserConn, constants.CHANNEL_SIZE),
		Logout:      make(chan *UserConn, constants.CHANNEL_SIZE),
		stop:        make(chan struct{}),
	}
}

// Start 启动消费与客户端管理循环
// 消费循环单独起 goroutine：ReadMessage 是阻塞调用，
// 不能和 Login/Logout 的 select 混在一个循环里
func (b *KafkaBroker) Start() {
	go b.consumeLoop()

	for {
		select {
		case client, ok := <-b.Login:
			if !ok {
				return
			}
			if client == nil {
				continue
			}
			b.register(client)

		case client, ok := <-b.Logout:
			if !ok {
				return
			}
			if client == nil {
				continue
			}
			b.unregister(client)

		case <-b.stop:
			return
		}
	}
}

// consumeLoop 后台消费循环
// 从 Kafka 拉取事件并投递给本实例的在线连接
func (b *KafkaBroker) consumeLoop() {
	ctx := context.Background()
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		kafkaMessage, err := b.kafkaClient.Consumer.ReadMessage(ctx)
		if err != nil {
			zap.L().Error("kafka read message failed", zap.Error(err))
			return
		}
		event, err := DecodeEvent(kafkaMessage.Value)
		if err != nil {
			zap.L().Error(err.Error())
			continue
		}
		b.deliver(event)
	}
}

// Publish 实现 EventBroker 接口：发布事件到 Kafka
func (b *KafkaBroker) Publish(ctx context.Context, data []byte) error {
	return b.kafkaClient.SendMessage(ctx, []byte("event"), data)
}

// RegisterClient 实现 EventBroker 接口：注册客户端
func (b *KafkaBroker) RegisterClient(client *UserConn) {
	b.Login <- client
}

// UnregisterClient 实现 EventBroker 接口：注销客户端
func (b *KafkaBroker) UnregisterClient(client *UserConn) {
	b.Logout <- client
}

// GetClient 实现 EventBroker 接口：获取客户端
func (b *KafkaBroker) GetClient(userId string) *UserConn {
	return b.getClient(userId)
}

// Close 关闭代理资源
func (b *KafkaBroker) Close() {
	close(b.stop)
	close(b.Login)
	close(b.Logout)
}
