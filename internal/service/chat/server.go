// Package chat 实现消息核心的实时分发层
// server.go
// 核心职责：实时服务器聚合结构和依赖注入
// 封装 EventBroker、KafkaClient 等组件，提供统一的生命周期管理
package chat

import (
	"context"

	"edumsg_server/internal/dao/mysql/repository"
)

// EventBroker 定义事件代理接口
// 支持多种实现：KafkaBroker (分布式), ChannelBroker (单机)
type EventBroker interface {
	// Publish 发布事件到消息队列/通道
	Publish(ctx context.Context, data []byte) error
	// RegisterClient 注册客户端连接
	RegisterClient(client *UserConn)
	// UnregisterClient 注销客户端连接
	UnregisterClient(client *UserConn)
	// GetClient 获取指定用户的连接
	GetClient(userId string) *UserConn
	// Start 启动事件分发循环
	Start()
	// Close 关闭代理资源
	Close()
}

// ChatServer 实时服务器聚合结构
// 封装所有实时分发相关组件，通过依赖注入管理生命周期
type ChatServer struct {
	// Broker 事件代理，实现 EventBroker 接口
	// 根据配置可能是 ChannelBroker 或 KafkaBroker
	Broker EventBroker

	// KafkaClient Kafka 客户端（仅 Kafka 模式使用）
	KafkaClient *KafkaClient

	// mode 运行模式: "channel" 或 "kafka"
	mode string
}

// ChatServerConfig 实时服务器配置
type ChatServerConfig struct {
	Mode             string // "channel" 或 "kafka"
	ConversationRepo repository.ConversationRepository
}

// NewChatServer 创建实时服务器实例
// 根据配置选择 ChannelBroker 或 KafkaBroker
func NewChatServer(cfg ChatServerConfig) *ChatServer {
	cs := &ChatServer{mode: cfg.Mode}

	if cfg.Mode == "kafka" {
		// Kafka 模式
		cs.KafkaClient = NewKafkaClient()
		cs.Broker = NewKafkaBroker(cs.KafkaClient, cfg.ConversationRepo)
	} else {
		// Channel 模式（默认）
		cs.Broker = NewChannelBroker(cfg.ConversationRepo)
	}
	return cs
}

// InitKafka 初始化 Kafka 连接（仅 Kafka 模式需要调用）
func (cs *ChatServer) InitKafka() {
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaInit()
	}
}

// Start 启动实时服务器
func (cs *ChatServer) Start() {
	cs.Broker.Start()
}

// Close 关闭实时服务器
func (cs *ChatServer) Close() {
	cs.Broker.Close()
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaClose()
	}
}

// GetBroker 获取事件代理
func (cs *ChatServer) GetBroker() EventBroker {
	return cs.Broker
}
